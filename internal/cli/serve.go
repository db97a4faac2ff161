package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/stylesync/internal/api"
)

const defaultAddr = "127.0.0.1:8080"

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		activate bool
		noCache  bool
		flags    storeFlags
	)

	cmd := &cobra.Command{
		Use:   "serve <scene.toml>",
		Short: "Serve a scene's comparison over HTTP",
		Long: `Load a scene and expose its comparison over a JSON HTTP API.

Panel styles are served at /compare/panels/{A,B}/style with an ETag, so a
map client can poll them and only reload when something changed. Snapshots
are stored in Redis (--redis), MongoDB (--mongo) or on disk.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			rt, err := c.loadRuntime(ctx, args[0], noCache)
			if err != nil {
				return err
			}
			defer rt.Close()

			store, err := flags.open(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if activate {
				if err := rt.Controller.Activate(ctx); err != nil {
					return err
				}
			}

			printSuccess("Serving %s", StyleValue.Render(rt.Scene.Name))
			printDetail("Snapshots: %s", flags.backend())
			printDetail("URL: %s", StyleLink.Render("http://"+addr+"/compare"))

			srv := api.New(rt, api.Options{Logger: logger, Snapshots: store})
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().BoolVar(&activate, "activate", false, "start with the comparison active")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the computed-style cache")
	flags.register(cmd.Flags())
	return cmd
}
