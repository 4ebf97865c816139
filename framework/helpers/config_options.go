package helpers

// ConfigOption is implemented by the vararg option types passed to constructors such as
// harness.NewClient and the mock endpoint setup.
type ConfigOption[T any] interface {
	Configure(*T) error
}

// ApplyOptions runs each option against the target in order, stopping at the first error.
func ApplyOptions[T any, U ConfigOption[T]](target *T, options ...U) error {
	// U lets callers pass a slice of their own named option type without converting it.
	for _, o := range options {
		if err := o.Configure(target); err != nil {
			return err
		}
	}
	return nil
}
