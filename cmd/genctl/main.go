// File: cmd/genctl/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"coursegen/internal/config"
	"coursegen/internal/domain"
	"coursegen/internal/domain/model"
	"coursegen/internal/domain/ports/adapter"
	"coursegen/internal/infra/adapters/render"
	"coursegen/internal/infra/api"
	"coursegen/internal/infra/auth"
	"coursegen/internal/infra/logging"
	"coursegen/internal/infra/metrics"
	"coursegen/internal/usecase"
)

const usageText = `usage: genctl <command> [flags]

commands:
  generate   submit a generation job and watch it to completion
  stream     run the streaming variant, tokens printed as they arrive
  courses    list | publish | delete courses
  docs       list | delete uploaded documents
  me         show account and credit balance
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	// .env is optional; real config comes from the YAML file + env overrides
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "generate":
		err = cmdGenerate(ctx, os.Args[2:])
	case "stream":
		err = cmdStream(ctx, os.Args[2:])
	case "courses":
		err = cmdCourses(ctx, os.Args[2:])
	case "docs":
		err = cmdDocs(ctx, os.Args[2:])
	case "me":
		err = cmdMe(ctx, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "genctl: %v\n", err)
		os.Exit(1)
	}
}

type deps struct {
	cfg    *config.Config
	log    *zerolog.Logger
	tokens adapter.TokenSource
	client *api.Client
}

func commonFlags(fs *flag.FlagSet) (cfgPath *string, dev *bool) {
	cfgPath = fs.String("config", "config.yaml", "path to YAML config file")
	dev = fs.Bool("dev", false, "development mode (console logs, verbose)")
	return
}

func buildDeps(cfgPath string, dev bool) (*deps, error) {
	cfg, err := config.LoadConfig(cfgPath, dev)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	var inner adapter.TokenSource
	if cfg.Auth.TokenFile != "" {
		inner = auth.NewFileTokenSource(cfg.Auth.TokenFile)
	} else {
		inner = auth.StaticTokenSource(cfg.Auth.Token)
	}
	tokens := auth.NewSessionTokenSource(inner, 10*time.Second)

	client := api.NewClient(cfg.API.BaseURL, tokens, cfg.API.Timeout, logger)
	return &deps{cfg: cfg, log: logger, tokens: tokens, client: client}, nil
}

func sourceFile(path string) (*usecase.SourceFile, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return &usecase.SourceFile{Name: filepath.Base(path), Reader: f}, func() { f.Close() }, nil
}

func cmdGenerate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	cfgPath, dev := commonFlags(fs)
	text := fs.String("text", "", "source text to generate from")
	file := fs.String("file", "", "source document to upload and generate from")
	title := fs.String("title", "", "course title")
	style := fs.String("style", "", "narration style (humor|academic|story|eli5|casual|tech)")
	difficulty := fs.String("difficulty", "intermediate", "difficulty level")
	out := fs.String("out", "", "write completed markup to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := buildDeps(*cfgPath, *dev)
	if err != nil {
		return err
	}
	src, closeSrc, err := sourceFile(*file)
	if err != nil {
		return err
	}
	defer closeSrc()

	genUC := usecase.NewGenerationUseCase(d.client, d.tokens, d.log)
	poller := usecase.NewPoller(d.client, d.tokens, d.cfg.Poll, d.log)

	var renderer adapter.Renderer = render.NewNoopRenderer()
	if d.cfg.Thumbnail.Enabled {
		renderer = render.NewChromeRenderer(d.cfg.Thumbnail.RenderTimeout)
	}
	thumbUC := usecase.NewThumbnailUseCase(d.client, renderer, adapter.Viewport{
		Width:   d.cfg.Thumbnail.Width,
		Height:  d.cfg.Thumbnail.Height,
		Quality: d.cfg.Thumbnail.Quality,
	}, d.log)

	course, err := genUC.Submit(ctx, usecase.GenerateParams{
		Text:       *text,
		File:       src,
		Title:      *title,
		Style:      *style,
		Difficulty: *difficulty,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientBalance) {
			return fmt.Errorf("insufficient credits: %v (top up in the user center)", err)
		}
		return err
	}
	fmt.Printf("submitted: course %d (%s)\n", course.ID, course.Status)
	fmt.Println("you can leave: the result also lands in \"my courses\" when done")

	watchErr := poller.Watch(ctx, course.ID, usecase.PollCallbacks{
		OnProgress: func(status model.CourseStatus, progress, attempt int) {
			fmt.Printf("\r%s %d%% (%ds elapsed)   ", status, progress, attempt*int(d.cfg.Poll.Interval.Seconds()))
		},
		OnCompleted: func(c *model.Course) {
			fmt.Printf("\ncourse %d completed\n", c.ID)
			markup := c.Generated()
			if *out != "" {
				if werr := os.WriteFile(*out, []byte(markup), 0o644); werr != nil {
					fmt.Fprintf(os.Stderr, "write %s: %v\n", *out, werr)
				} else {
					fmt.Printf("markup written to %s\n", *out)
				}
			}
			// fire-and-forget enrichment; failures only get logged
			thumbUC.Capture(ctx, c.ID, markup)
		},
		OnFailed: func(reason string) {
			fmt.Printf("\ngeneration failed: %s (credits were refunded)\n", reason)
		},
	})
	if watchErr != nil {
		if errors.Is(watchErr, domain.ErrPollTimeout) {
			fmt.Println("\nstill running, check \"my courses\" later")
			return nil
		}
		return watchErr
	}

	// reflect the post-run balance (covers the refund-on-failure path too)
	if me, merr := d.client.Me(ctx); merr == nil {
		fmt.Printf("credit balance: %d\n", me.PointsBalance)
	}
	return nil
}

func cmdStream(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stream", flag.ExitOnError)
	cfgPath, dev := commonFlags(fs)
	text := fs.String("text", "", "source text to generate from")
	file := fs.String("file", "", "source document to upload and generate from")
	title := fs.String("title", "", "course title")
	style := fs.String("style", "", "narration style")
	difficulty := fs.String("difficulty", "intermediate", "difficulty level")
	out := fs.String("out", "", "write collected markup to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := buildDeps(*cfgPath, *dev)
	if err != nil {
		return err
	}
	src, closeSrc, err := sourceFile(*file)
	if err != nil {
		return err
	}
	defer closeSrc()

	genUC := usecase.NewGenerationUseCase(d.client, d.tokens, d.log)
	stream, err := genUC.Stream(ctx, usecase.GenerateParams{
		Text:       *text,
		File:       src,
		Title:      *title,
		Style:      *style,
		Difficulty: *difficulty,
	}, func(tok string) { fmt.Print(tok) })
	if err != nil {
		return err
	}
	defer stream.Close()

	var collected strings.Builder
	for {
		tok, rerr := stream.Recv()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			fmt.Println()
			return rerr
		}
		collected.WriteString(tok)
	}
	fmt.Println()

	if *out != "" {
		if werr := os.WriteFile(*out, []byte(collected.String()), 0o644); werr != nil {
			return fmt.Errorf("write %s: %w", *out, werr)
		}
		fmt.Printf("markup written to %s\n", *out)
	}
	return nil
}

func cmdCourses(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("courses", flag.ExitOnError)
	cfgPath, dev := commonFlags(fs)
	page := fs.Int("page", 1, "page")
	size := fs.Int("size", 20, "page size")
	status := fs.String("status", "", "filter by status")
	publish := fs.Int64("publish", 0, "publish the course with this id")
	del := fs.Int64("delete", 0, "delete the course with this id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	d, err := buildDeps(*cfgPath, *dev)
	if err != nil {
		return err
	}

	switch {
	case *publish != 0:
		if err := d.client.PublishCourse(ctx, *publish); err != nil {
			return err
		}
		fmt.Printf("published: share it at /share/%d\n", *publish)
		return nil
	case *del != 0:
		if err := d.client.DeleteCourse(ctx, *del); err != nil {
			return err
		}
		fmt.Printf("deleted course %d\n", *del)
		return nil
	default:
		list, err := d.client.ListCourses(ctx, *page, *size, model.CourseStatus(*status))
		if err != nil {
			return err
		}
		for _, c := range list.Items {
			fmt.Printf("%6d  %-10s  %3d%%  %s\n", c.ID, c.Status, c.Progress, c.Title)
		}
		fmt.Printf("page %d/%d, %d total\n", list.Page, list.Pages, list.Total)
		return nil
	}
}

func cmdDocs(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("docs", flag.ExitOnError)
	cfgPath, dev := commonFlags(fs)
	page := fs.Int("page", 1, "page")
	size := fs.Int("size", 20, "page size")
	del := fs.Int64("delete", 0, "delete the document with this id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	d, err := buildDeps(*cfgPath, *dev)
	if err != nil {
		return err
	}

	if *del != 0 {
		if err := d.client.DeleteDocument(ctx, *del); err != nil {
			return err
		}
		fmt.Printf("deleted document %d\n", *del)
		return nil
	}
	list, err := d.client.ListDocuments(ctx, *page, *size)
	if err != nil {
		return err
	}
	for _, doc := range list.Items {
		fmt.Printf("%6d  %-8s  %8d bytes  %s\n", doc.ID, doc.FileType, doc.FileSize, doc.Title)
	}
	fmt.Printf("page %d/%d, %d total\n", list.Page, list.Pages, list.Total)
	return nil
}

func cmdMe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("me", flag.ExitOnError)
	cfgPath, dev := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	d, err := buildDeps(*cfgPath, *dev)
	if err != nil {
		return err
	}
	me, err := d.client.Me(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			return fmt.Errorf("not signed in: set auth.token or auth.token_file")
		}
		return err
	}
	fmt.Printf("%s <%s>\ntier: %s\ncredits: %d\n", me.Username, me.Email, me.SubscriptionTier, me.PointsBalance)
	return nil
}
