package document

// SampleShapes3D is the lit starter scene: three half-scale cubes along the
// x axis colored green, blue and red.
func SampleShapes3D() []Shape {
	half := Vec3{X: 0.5, Y: 0.5, Z: 0.5}
	return []Shape{
		NewShape(KindCube,
			WithTranslation(Vec3{X: 20}),
			WithScale(half),
			WithColor(MustHexToRGB("#00ff00")),
		),
		NewShape(KindCube,
			WithScale(half),
			WithColor(MustHexToRGB("#0000ff")),
		),
		NewShape(KindCube,
			WithTranslation(Vec3{X: -20}),
			WithScale(half),
			WithColor(MustHexToRGB("#ff0000")),
		),
	}
}

// SampleShapes2D is the flat starter scene: a blue square and a red
// triangle on the same row, unit geometry scaled to 50 pixels.
func SampleShapes2D() []Shape {
	scale := Vec3{X: 50, Y: 50, Z: 1}
	return []Shape{
		NewShape(KindRectangle,
			WithTranslation(Vec3{X: 200, Y: 100}),
			WithScale(scale),
			WithColor(MustHexToRGB("#0000ff")),
		),
		NewShape(KindTriangle,
			WithTranslation(Vec3{X: 300, Y: 100}),
			WithScale(scale),
			WithColor(MustHexToRGB("#ff0000")),
		),
	}
}

// SampleShapes picks the starter scene for a rendering mode.
func SampleShapes(is3D bool) []Shape {
	if is3D {
		return SampleShapes3D()
	}
	return SampleShapes2D()
}
