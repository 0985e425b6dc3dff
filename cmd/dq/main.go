// Command dq is a CLI client for the docquery document service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mkraev/docquery/internal/client"
	"github.com/mkraev/docquery/internal/config"
	"github.com/mkraev/docquery/internal/docstore"
	"github.com/mkraev/docquery/internal/model"
	"github.com/mkraev/docquery/internal/qa"
	"github.com/mkraev/docquery/internal/session"
	"github.com/mkraev/docquery/internal/tokenstore"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func usage() {
	fmt.Fprintf(os.Stderr, `dq CLI
Usage:
  dq [-url BASE_URL] [-v] <cmd> [args]

Commands:
  version
  register  -email <email> -password <pw> -first <name> [-last <name>]
  login     -email <email> -password <pw>            (saves token)
  logout
  whoami
  list
  upload    -file <path> [-title <title>]
  rm        -id <id>
  rename    -id <id> -title <title>
  ask       -id <id> -q <question>
`)
	os.Exit(2)
}

// main wires the client stack and dispatches subcommands.
func main() {
	apiURL := flag.String("url", "", "API base URL (overrides DOCQUERY_API_URL)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	if *apiURL != "" {
		cfg.APIBaseURL = *apiURL
	}

	logger := zap.NewNop()
	if *verbose || cfg.Debug {
		logger, _ = zap.NewDevelopment()
	}
	defer func() { _ = logger.Sync() }()

	store := tokenstore.NewFile(cfg.TokenFile)

	// the forced-logout hook is the one place transport reaches the frontend
	var sess *session.Session
	api := client.New(cfg, store,
		client.WithLogger(logger),
		client.WithAuthRejectHook(func() {
			if sess != nil {
				sess.HandleAuthReject()
			}
			fmt.Fprintln(os.Stderr, "session expired, run `dq login` again")
		}),
	)
	sess = session.New(api, store, session.WithLogger(logger))
	docs := docstore.New(api, docstore.WithLogger(logger))
	asker := qa.New(api, qa.WithLogger(logger))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch cmd {

	case "version":
		fmt.Printf("dq %s (%s)\n", version, buildDate)

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		first := fs.String("first", "", "first name")
		last := fs.String("last", "", "last name")
		_ = fs.Parse(args)

		user, err := sess.Register(ctx, model.Registration{
			Email:     *email,
			Password:  *password,
			FirstName: *first,
			LastName:  *last,
		})
		if err != nil {
			fail(err)
		}
		printJSON(user)
		fmt.Fprintln(os.Stderr, "registered; run `dq login` to sign in")

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if err := sess.Login(ctx, *email, *password); err != nil {
			fail(err)
		}
		snap := sess.Snapshot()
		fmt.Printf("ok, signed in as %s\n", snap.User.Email)

	case "logout":
		sess.Logout()
		fmt.Println("ok")

	case "whoami":
		if err := sess.Restore(ctx); err != nil {
			fail(err)
		}
		snap := sess.Snapshot()
		if !snap.Authenticated {
			fail(errors.New("not signed in"))
		}
		printJSON(snap.User)

	case "list":
		if err := docs.FetchAll(ctx); err != nil {
			fail(err)
		}
		type row struct {
			ID       int64  `json:"id"`
			Title    string `json:"title"`
			Uploaded string `json:"uploaded"`
		}
		rows := []row{}
		for _, d := range docs.Snapshot().Documents {
			rows = append(rows, row{ID: d.ID, Title: d.Title, Uploaded: d.CreatedAt.UTC().Format(time.RFC3339)})
		}
		printJSON(rows)

	case "upload":
		fs := flag.NewFlagSet("upload", flag.ExitOnError)
		path := fs.String("file", "", "file to upload")
		title := fs.String("title", "", "document title (defaults to the file name)")
		_ = fs.Parse(args)
		if *path == "" {
			fmt.Fprintln(os.Stderr, "need -file")
			os.Exit(1)
		}

		f, err := os.Open(*path)
		if err != nil {
			fail(err)
		}
		defer f.Close()

		doc, err := docs.Upload(ctx, titleOrDefault(*path, *title), filepath.Base(*path), f)
		if err != nil {
			fail(err)
		}
		printJSON(doc)

	case "rm":
		fs := flag.NewFlagSet("rm", flag.ExitOnError)
		id := fs.String("id", "", "document id")
		_ = fs.Parse(args)

		docID, err := parseID(*id)
		if err != nil {
			fail(err)
		}
		if err := docs.Remove(ctx, docID); err != nil {
			fail(err)
		}
		fmt.Println("deleted")

	case "rename":
		fs := flag.NewFlagSet("rename", flag.ExitOnError)
		id := fs.String("id", "", "document id")
		title := fs.String("title", "", "new title")
		_ = fs.Parse(args)

		docID, err := parseID(*id)
		if err != nil {
			fail(err)
		}
		doc, err := docs.Update(ctx, docID, *title)
		if err != nil {
			fail(err)
		}
		printJSON(doc)

	case "ask":
		fs := flag.NewFlagSet("ask", flag.ExitOnError)
		id := fs.String("id", "", "document id")
		question := fs.String("q", "", "question")
		_ = fs.Parse(args)

		docID, err := parseID(*id)
		if err != nil {
			fail(err)
		}
		if err := docs.FetchAll(ctx); err != nil {
			fail(err)
		}
		if !docs.Select(docID) {
			fail(fmt.Errorf("no document with id %d", docID))
		}
		target, _ := docs.Selected()

		ex := asker.Ask(ctx, target.ID, *question)
		if ex.Err != "" {
			fail(errors.New(ex.Err))
		}
		fmt.Println(ex.Answer)

	default:
		usage()
	}
}

// ---- helpers ----

// titleOrDefault falls back to the file name (sans extension) as the title.
func titleOrDefault(path, title string) string {
	if strings.TrimSpace(title) != "" {
		return title
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func parseID(s string) (int64, error) {
	if s == "" {
		return 0, errors.New("need -id")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad document id %q", s)
	}
	return id, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
