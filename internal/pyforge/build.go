package pyforge

import (
	"context"
	"fmt"
	"os/exec"
)

// runMake compiles the configured source tree with the requested number of
// parallel jobs. The jobs value is handed straight to make; pyforge does not
// manage the workers itself.
func runMake(ctx context.Context, dir string, jobs int) error {
	colArrow.Print("-> ")
	colSuccess.Printf("Building with make -j%d\n", jobs)

	cmd := exec.Command("make", fmt.Sprintf("-j%d", jobs))
	cmd.Dir = dir
	if err := UserExec.Run(cmd); err != nil {
		return &MakeError{Err: err}
	}
	return nil
}
