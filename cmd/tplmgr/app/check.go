package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errCheckFailed = errors.New("some templates failed to load")

func checkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Fetch and compile every registered template, reporting failures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			out := cmd.OutOrStdout()
			failed := 0
			for _, name := range s.manager.Names() {
				if err := s.manager.Fetch(s.ctx, name); err != nil {
					failed++
					fmt.Fprintf(out, "FAIL\t%s\t%v\n", name, err)
					continue
				}
				vars, _ := s.manager.Variables(name)
				fmt.Fprintf(out, "ok\t%s\t%v\n", name, vars)
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d", errCheckFailed, failed, len(s.manager.Names()))
			}
			return nil
		},
	}
	sourceFlags(cmd.Flags())
	return cmd
}
