// sqlkit renders the statements of entity mappings and generates typed
// column references.
//
//	sqlkit render --dialect postgres entities.yaml
//	sqlkit gen ./models
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/syssam/sqlkit/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "sqlkit:", err)
		stop()
		os.Exit(1)
	}
}
