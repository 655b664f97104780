package hashpw

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/mxmehl/home-stream/internal/creds"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "hash-password",
		Usage: "Hash a password for the users section of the config file, reads the password from stdin",
		Action: func(ctx *cli.Context) error {
			reader := bufio.NewReader(ctx.App.Reader)
			password, err := reader.ReadString('\n')
			if err != nil && password == "" {
				return fmt.Errorf("unable to read password from stdin, cause %w", err)
			}
			password = strings.TrimRight(password, "\r\n")
			if password == "" {
				return fmt.Errorf("password must not be empty")
			}
			hash, err := creds.HashPassword(password)
			if err != nil {
				return fmt.Errorf("unable to hash password, cause %w", err)
			}
			fmt.Fprintln(ctx.App.Writer, hash)
			return nil
		},
	}
}
