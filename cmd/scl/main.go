package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"scrumline/internal/config"
	"scrumline/internal/db"
	"scrumline/internal/domain"
	"scrumline/internal/engine"
	"scrumline/internal/journal"
	"scrumline/internal/migrate"
	"scrumline/internal/repo"
	"scrumline/internal/server"
	"scrumline/internal/sim"
)

var rootCmd = &cobra.Command{
	Use:   "scl",
	Short: "Scrumline CLI",
	Long: `Scrumline simulates a delivery pipeline hour by hour: a team of
developer, ops, and QA capabilities pulls stories through
active -> resolved -> deployed -> closed while competing for one shared
deploy/test environment. Deployments lock the environment exclusively and
batch every resolved story; QA sessions share it. The run ends the first hour
nobody can find eligible work.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("SCRUMLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(backlogCmd())
	rootCmd.AddCommand(teamCmd())
	rootCmd.AddCommand(runsCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a workspace with starter config",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			wrote := []string{}
			for name, content := range map[string]string{
				"backlog.yml": config.GenerateDefaultBacklog(),
				"team.yml":    config.GenerateDefaultTeam(),
			} {
				path := filepath.Join(workspace, name)
				if _, err := os.Stat(path); err == nil {
					continue
				}
				if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
					return err
				}
				wrote = append(wrote, name)
			}
			sort.Strings(wrote)
			if len(wrote) == 0 {
				fmt.Println("workspace already initialized")
				return nil
			}
			fmt.Printf("initialized workspace (%s)\n", strings.Join(wrote, ", "))
			return nil
		},
	}
	return cmd
}

func runCmd() *cobra.Command {
	var backlogPath, teamPath string
	var pickSmaller, record bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			backlog, err := config.LoadBacklog(backlogPath)
			if err != nil {
				return err
			}
			team, err := config.LoadTeam(teamPath)
			if err != nil {
				return err
			}
			spec := engine.RunSpec{
				Backlog:          backlog,
				Team:             team,
				PickSmallerFirst: pickSmaller,
				Record:           record,
				Recorder:         journal.New(os.Stdout),
			}
			if record {
				return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
					run, _, err := e.Run(ctx, spec)
					if err != nil {
						return err
					}
					return printRunResult(run)
				})
			}
			e := engine.Engine{Now: time.Now}
			run, _, err := e.Run(cmd.Context(), spec)
			if err != nil {
				return err
			}
			return printRunResult(run)
		},
	}
	cmd.Flags().StringVar(&backlogPath, "backlog", "backlog.yml", "backlog YAML file")
	cmd.Flags().StringVar(&teamPath, "team", "team.yml", "team YAML file")
	cmd.Flags().BoolVar(&pickSmaller, "pick-smaller-first", false, "prefer smaller point estimates when picking stories")
	cmd.Flags().BoolVar(&record, "record", false, "store the run in the workspace database")
	return cmd
}

func printRunResult(run domain.Run) error {
	if viper.GetBool("json") {
		return printJSON(run)
	}
	fmt.Printf("Run %s: %d working day(s), %d hour(s), %d/%d stories closed\n",
		run.ID, run.Days, run.Hours, run.StoriesClosed, run.StoriesTotal)
	return nil
}

func validateCmd() *cobra.Command {
	var backlogPath, teamPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate backlog and team files",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, berr := config.LoadBacklog(backlogPath)
			_, terr := config.LoadTeam(teamPath)
			err := errors.Join(berr, terr)
			if viper.GetBool("json") {
				out := map[string]any{"ok": err == nil}
				if err != nil {
					out["error"] = err.Error()
				}
				return printJSON(out)
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
	cmd.Flags().StringVar(&backlogPath, "backlog", "backlog.yml", "backlog YAML file")
	cmd.Flags().StringVar(&teamPath, "team", "team.yml", "team YAML file")
	return cmd
}

func backlogCmd() *cobra.Command {
	b := &cobra.Command{Use: "backlog", Short: "Inspect the backlog file"}
	b.AddCommand(backlogShowCmd())
	return b
}

func backlogShowCmd() *cobra.Command {
	var backlogPath string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the loaded backlog",
		RunE: func(cmd *cobra.Command, args []string) error {
			stories, err := config.LoadBacklog(backlogPath)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(stories)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Story", "Points", "Status", "Active", "Resolved", "Deployed"})
			for _, s := range stories {
				tw.AppendRow(table.Row{
					s.Title, s.Points, s.Status,
					s.Profile[domain.StatusActive],
					s.Profile[domain.StatusResolved],
					s.Profile[domain.StatusDeployed],
				})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&backlogPath, "backlog", "backlog.yml", "backlog YAML file")
	return cmd
}

func teamCmd() *cobra.Command {
	t := &cobra.Command{Use: "team", Short: "Inspect the team file"}
	t.AddCommand(teamShowCmd())
	return t
}

func teamShowCmd() *cobra.Command {
	var teamPath string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the loaded team",
		RunE: func(cmd *cobra.Command, args []string) error {
			members, err := config.LoadTeam(teamPath)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(members)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Name", "Role", "Productivity", "Available"})
			for _, m := range members {
				name := m.Name
				if m.SameAs != "" {
					name = m.SameAs
				}
				days := make([]string, 0, len(m.Available))
				for _, d := range m.Available {
					days = append(days, sim.WeekdayName(d))
				}
				tw.AppendRow(table.Row{name, m.Role, m.Productivity, strings.Join(days, ",")})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&teamPath, "team", "team.yml", "team YAML file")
	return cmd
}

func runsCmd() *cobra.Command {
	r := &cobra.Command{Use: "runs", Short: "Stored runs"}
	r.AddCommand(runsListCmd())
	r.AddCommand(runsShowCmd())
	return r
}

func runsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				runs, err := e.Repo.ListRuns(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(runs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Started", "Days", "Hours", "Closed"})
				for _, run := range runs {
					tw.AppendRow(table.Row{
						run.ID, run.StartedAt, run.Days, run.Hours,
						fmt.Sprintf("%d/%d", run.StoriesClosed, run.StoriesTotal),
					})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func runsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				run, err := e.Repo.GetRun(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(run)
			})
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{Use: "log", Short: "Stored event streams"}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var runID, evtType, story string
	var n int
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show a run's events",
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID == "" {
				return fmt.Errorf("--run required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				evts, err := e.Repo.ListRunEvents(ctx, runID, repo.EventFilters{
					Type:  evtType,
					Story: story,
					Limit: n,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(evts)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Seq", "Day", "Hour", "Type", "Story", "Actor"})
				for _, evt := range evts {
					tw.AppendRow(table.Row{evt.Seq, evt.Day, evt.Hour, evt.Type, evt.Story, evt.Actor})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "run id")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&story, "story", "", "story title filter")
	cmd.Flags().IntVar(&n, "n", 0, "limit number of events (0 = all)")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				authCfg := server.AuthConfig{JWTSecret: os.Getenv("SCRUMLINE_JWT_SECRET")}
				if authCfg.JWTSecret == "" {
					return fmt.Errorf("SCRUMLINE_JWT_SECRET is required for bearer auth")
				}
				handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				fmt.Printf("Serving Scrumline API on http://%s%s\n", addr, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, engine.New(conn))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
