// Command chat is a terminal client for the document chat service. It
// attaches documents, uploads the selected set, and streams questions
// and cited answers over the chat websocket.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jenilparmar/chatbot-theme-identifier/internal/client"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/config"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/models"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/session"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/watcher"
)

var (
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chat [files...]",
	Short: "Interactive client: attach documents, upload, ask questions",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "chatbot-server.config", "path to XML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func runChat(ctx context.Context, files []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ch, err := client.Dial(ctx, cfg.Client.ChatEndpoint, logger)
	if err != nil {
		return fmt.Errorf("connecting chat channel: %w", err)
	}
	defer ch.Close()

	up := client.NewUploader(cfg.Client.UploadEndpoint, logger)
	sess := session.New(up, ch, logger)
	defer sess.Dispose()

	for _, path := range files {
		if err := attach(sess, path); err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", path, err)
		}
	}

	if dir := cfg.Client.WatchDirectory; dir != "" {
		w, err := watcher.New(sess, nil, logger)
		if err != nil {
			return fmt.Errorf("starting directory watcher: %w", err)
		}
		defer w.Stop()
		if err := w.Watch(ctx, dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		fmt.Printf("watching %s for new documents\n", dir)
	}

	go func() {
		for ev := range ch.Events() {
			sess.OnAnswer(ev)
			printAnswer(sess)
		}
	}()

	fmt.Println("commands: /attach <file>, /remove <n>, /toggle <n>, /list, /upload, /cite <n>, /quit")
	fmt.Println("anything else is sent as a question")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return nil
		}
		if err := handleLine(ctx, sess, line); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
	}
}

func handleLine(ctx context.Context, sess *session.Session, line string) error {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "/attach":
		return attach(sess, rest)
	case "/remove":
		if a, ok := nthArtifact(sess, rest); ok {
			sess.Remove(a.ID)
		}
		return nil
	case "/toggle":
		if a, ok := nthArtifact(sess, rest); ok {
			sess.Toggle(a.ID)
		}
		return nil
	case "/list":
		for i, a := range sess.Artifacts() {
			mark := " "
			if sess.IsSelected(a.ID) {
				mark = "*"
			}
			fmt.Printf("%2d %s %-8s %s\n", i+1, mark, a.Kind, a.DisplayName)
		}
		return nil
	case "/upload":
		msg, err := sess.Upload(ctx)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	case "/cite":
		var n int
		fmt.Sscanf(rest, "%d", &n)
		if sess.OnCitationActivate(n - 1) {
			st := sess.Preview()
			fmt.Printf("previewing artifact %s page %d\n", st.ActiveArtifactID, st.PageOrOffset)
		} else {
			fmt.Println("citation has no artifact to jump to")
		}
		return nil
	default:
		return sess.Ask(line)
	}
}

func attach(sess *session.Session, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if _, ok := sess.AttachFile(filepath.Base(path), data); !ok {
		return fmt.Errorf("unsupported file type: %s", path)
	}
	fmt.Printf("attached %s\n", filepath.Base(path))
	return nil
}

func nthArtifact(sess *session.Session, arg string) (models.Artifact, bool) {
	var n int
	fmt.Sscanf(arg, "%d", &n)
	list := sess.Artifacts()
	if n < 1 || n > len(list) {
		fmt.Fprintf(os.Stderr, "no artifact %q\n", arg)
		return models.Artifact{}, false
	}
	return list[n-1], true
}

func printAnswer(sess *session.Session) {
	ans := sess.Answer()
	if ans == nil {
		return
	}
	fmt.Printf("\n%s\n", ans.ResponseText)
	for i, rc := range sess.ResolvedCitations() {
		label := rc.Citation.Source
		if rc.Citation.IsPDF() && rc.Citation.Page != models.PageUnknown {
			label = fmt.Sprintf("%s p.%d", label, rc.Citation.Page)
		}
		switch rc.State {
		case models.ResolvedArtifact:
			fmt.Printf("  [%d] %s\n", i+1, label)
		case models.ResolvedFreeText:
			fmt.Printf("  [%d] your text\n", i+1)
		default:
			fmt.Printf("  [%d] %s (not attached)\n", i+1, label)
		}
	}
	fmt.Print("> ")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
