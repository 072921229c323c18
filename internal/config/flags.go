package config

import "flag"

// TransformFlags are the -method, -order and -scaling flags shared by the
// command line tools.
type TransformFlags struct {
	fs      *flag.FlagSet
	method  *string
	order   *int
	scaling *float64
}

// AddTransformFlags registers the transform flags on fs.
func AddTransformFlags(fs *flag.FlagSet) *TransformFlags {
	return &TransformFlags{
		fs:      fs,
		method:  fs.String("method", "", "Fit method (automatic, triangulation, spline, affine, polynomial1-3, polynomial)"),
		order:   fs.Int("order", 0, "Polynomial order for -method polynomial"),
		scaling: fs.Float64("scaling", 0, "Coordinate scaling factor"),
	}
}

// Override copies the flags given on the command line onto t. Flags left
// out keep t's values. Call it after fs.Parse.
func (f *TransformFlags) Override(t *TransformConfig) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "method":
			t.Method = *f.method
		case "order":
			t.Order = *f.order
		case "scaling":
			t.Scaling = *f.scaling
		}
	})
}
