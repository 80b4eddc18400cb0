package scanners

// NewDefaultRegistry builds a registry with every built-in scanner in
// a stable order.
func NewDefaultRegistry() (*Registry, error) {
	r := NewRegistry()

	builtins := []Plugin{
		NewClaudeDesktopScanner(),
		NewLangchainScanner(),
		NewRooCodeScanner(),
		NewGshScanner(),
		NewDotenvScanner(),
	}
	for _, p := range builtins {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}
