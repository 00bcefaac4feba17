package stacktrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalPaths(t *testing.T) {
	stack := []byte(`goroutine 1 [running]:
main.fn()
	/src/accountd/internal/account/usecase/login.go:42 +0x1d
runtime.goexit()
	/usr/local/go/src/runtime/asm_amd64.s:1700 +0x1
`)

	assert.Equal(t, []string{"internal/account/usecase/login.go:42"}, InternalPaths(stack))
}
