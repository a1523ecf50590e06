package compiler

// Compile parses src and lowers it to Rust.
func Compile(src string) (string, error) {
	prog, err := Parse(src)
	if err != nil {
		return "", err
	}
	return Generate(prog)
}
