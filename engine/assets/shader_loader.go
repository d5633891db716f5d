package assets

import (
	"fmt"
	"os"
)

// LoadShader reads a GLSL source file into a null-terminated string for
// OpenGL.
func LoadShader(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("assets: load shader %q: %w", path, err)
	}
	if len(b) == 0 || b[len(b)-1] != 0 {
		b = append(b, 0)
	}
	return string(b), nil
}
