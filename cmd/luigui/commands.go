package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"luigui/internal/backend"
	"luigui/internal/core"
	"luigui/internal/data"
	"luigui/internal/service"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errNotSignedIn = errors.New("not signed in, run 'luigui login' first")

// session restores the CLI session from the local state database.
func (a *app) session(ctx context.Context) (*service.Session, *data.SessionStore, error) {
	db, err := a.stateDB()
	if err != nil {
		return nil, nil, err
	}
	store := data.NewSessionStore(ctx, data.NewStateRepo(db), a.sealer)
	sess := service.NewSession(a.client, store)
	if err := sess.Init(ctx); err != nil {
		return nil, nil, err
	}
	return sess, store, nil
}

func (a *app) signedIn(ctx context.Context) (*service.Session, *data.SessionStore, *backend.Conn, error) {
	sess, store, err := a.session(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	if !sess.IsAuthenticated() {
		return nil, nil, nil, errNotSignedIn
	}
	return sess, store, a.client.Session(sess.Token()), nil
}

// remoteErr turns a rejected token into a sign-out.
func remoteErr(store *data.SessionStore, err error) error {
	if errors.Is(err, core.ErrUnauthorized) {
		_ = store.Clear()
		return errors.New("session expired, run 'luigui login' again")
	}
	return errors.New(core.UserMessage(err))
}

func readSecret(w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func newLoginCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(email) == "" {
				return errors.New("--email is required")
			}
			password, err := readSecret(cmd.ErrOrStderr(), "Password: ")
			if err != nil {
				return err
			}

			sess, _, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			if err := sess.Login(cmd.Context(), email, password); err != nil {
				return errors.New(core.UserMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", sess.User().DisplayName(), sess.User().Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account e-mail")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, _, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			sess.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, _, _, err := a.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			u := sess.User()
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> role=%s\n", u.DisplayName(), u.Email, u.Role)
			return nil
		},
	}
}

func newDatabasesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "databases",
		Aliases: []string{"dbs"},
		Short:   "List the databases you can query",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, store, conn, err := a.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			dbs, err := conn.ListDatabases(cmd.Context())
			if err != nil {
				return remoteErr(store, err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tKIND\tHOST")
			for _, db := range dbs {
				host := ""
				if db.IsDirect() {
					host = db.Host + ":" + db.Port
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", db.ID, db.Name, db.Kind, host)
			}
			return tw.Flush()
		},
	}
}

func newAskCmd(a *app) *cobra.Command {
	var (
		dbID     int64
		template string
	)
	cmd := &cobra.Command{
		Use:   "ask QUESTION...",
		Short: "Ask a database a question",
		Example: `  luigui ask --db 3 "Which products sell the most?"
  luigui ask --db 3 --template explain "SELECT name FROM products"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := core.LookupTemplate(template); !ok {
				return fmt.Errorf("unknown template %q", template)
			}
			sess, store, conn, err := a.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			db, err := conn.GetDatabase(cmd.Context(), dbID)
			if err != nil {
				return remoteErr(store, err)
			}
			stateDB, err := a.stateDB()
			if err != nil {
				return err
			}

			svc := service.NewQuestionService(conn, store, data.NewActivityRepo(stateDB))
			sub := service.Submission{
				Database:   db,
				Question:   strings.Join(args, " "),
				TemplateID: template,
				UserEmail:  sess.User().Email,
			}

			out := svc.Submit(cmd.Context(), sub)
			for attempt := 0; out.NeedPassword && attempt < 3; attempt++ {
				if out.PasswordError {
					fmt.Fprintln(cmd.ErrOrStderr(), "The password was rejected.")
				}
				sub.Password, err = readSecret(cmd.ErrOrStderr(), "Password for "+db.Name+": ")
				if err != nil {
					return err
				}
				out = svc.Submit(cmd.Context(), sub)
			}
			if out.Error != "" {
				return errors.New(out.Error)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, out.Answer.SQL)
			if out.ShowAnswer {
				fmt.Fprintln(w)
				fmt.Fprintln(w, out.Answer.Answer)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&dbID, "db", 0, "Database id")
	cmd.Flags().StringVarP(&template, "template", "t", "generate", "Prompt template (generate, optimize, explain, fix)")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var dbID int64
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous questions for a database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, store, conn, err := a.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			items, err := conn.ListQuestions(cmd.Context(), dbID)
			if err != nil {
				return remoteErr(store, err)
			}
			w := cmd.OutOrStdout()
			for _, qa := range items {
				fmt.Fprintf(w, "#%d [%s] %s\n", qa.ID, qa.PromptType, qa.Question)
				if qa.SQL != "" {
					fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(qa.SQL, "\n", "\n  "))
				}
			}
			if len(items) == 0 {
				fmt.Fprintln(w, "No questions yet")
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&dbID, "db", 0, "Database id")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func newExtractSchemaCmd(a *app) *cobra.Command {
	var driver, dsn, outFile string
	cmd := &cobra.Command{
		Use:   "extract-schema",
		Short: "Print the schema JSON of a reachable database",
		Long:  "Reads column metadata and prints the JSON a schema-only database registration expects. Drivers: " + strings.Join(service.SupportedDrivers(), ", ") + ".",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			blob, err := service.NewSchemaExtractor().ExtractJSON(cmd.Context(), driver, dsn)
			if err != nil {
				return err
			}
			if outFile != "" {
				return os.WriteFile(outFile, []byte(blob+"\n"), 0600)
			}
			fmt.Fprintln(cmd.OutOrStdout(), blob)
			return nil
		},
	}
	cmd.Flags().StringVar(&driver, "driver", "postgres", "Database driver")
	cmd.Flags().StringVar(&dsn, "dsn", "", "Connection string")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write to a file instead of stdout")
	_ = cmd.MarkFlagRequired("dsn")
	return cmd
}

func newCheckConnCmd(a *app) *cobra.Command {
	var c service.DirectConnection
	var port int
	cmd := &cobra.Command{
		Use:   "check-conn",
		Short: "Test a direct PostgreSQL connection before registering it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readSecret(cmd.ErrOrStderr(), "Password: ")
			if err != nil {
				return err
			}
			c.Port = strconv.Itoa(port)
			c.Password = pw
			if err := service.NewSchemaExtractor().CheckConnection(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Connection OK")
			return nil
		},
	}
	cmd.Flags().StringVar(&c.Host, "host", "localhost", "Server host")
	cmd.Flags().IntVar(&port, "port", 5432, "Server port")
	cmd.Flags().StringVar(&c.Username, "user", "", "Username")
	cmd.Flags().StringVar(&c.DBName, "db", "", "Database name")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}
