package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/medassist/internal/conversation"
	"github.com/medassist/internal/render"
	"github.com/medassist/internal/session"
)

// ChatCommand returns the chat command
func ChatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Ask questions about patient records",
		Description: `Without --message an interactive prompt is started. Mention the patient in
the question ("show me patient 123 history") or pass --patient.

Prompt commands: /patient <id>, /history, /reset, /quit`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "patient",
				Aliases: []string{"p"},
				Usage:   "patient ID used for every question",
				EnvVars: []string{"MEDASSIST_PATIENT_ID"},
			},
			&cli.StringFlag{
				Name:    "message",
				Aliases: []string{"m"},
				Usage:   "ask a single question and exit",
			},
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "print replies without markdown rendering",
			},
		},
		Action: runChat,
	}
}

func runChat(c *cli.Context) error {
	cfg, err := loadedConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	sess, closeSession, err := newSession(cfg)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer closeSession()

	renderer, err := newRenderer(cfg, c.Bool("plain"))
	if err != nil {
		return err
	}

	if message := c.String("message"); message != "" {
		return askOnce(c.Context, sess, renderer, c.App.Writer, message, c.String("patient"))
	}

	return runPrompt(c.Context, sess, renderer, c.App.Reader, c.App.Writer, c.String("patient"))
}

func askOnce(ctx context.Context, sess *session.Session, r *render.Renderer, out io.Writer, text, patientID string) error {
	_, err := sess.Dispatch(ctx, session.SendRequested{Text: text, RecordID: patientID})
	printMessages(out, r, sess.History())
	if err != nil {
		return fmt.Errorf("chat request failed: %w", err)
	}
	return nil
}

// runPrompt reads one question per line until EOF or /quit. Only agent
// messages are printed after each turn since the user just typed theirs.
func runPrompt(ctx context.Context, sess *session.Session, r *render.Renderer, in io.Reader, out io.Writer, patientID string) error {
	fmt.Fprintln(out, r.Note("Ask about a patient, e.g. \"Show me patient 123 history\". /quit to exit."))

	scanner := bufio.NewScanner(in)
	seen := 0
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			continue
		case trimmed == "/quit" || trimmed == "/exit":
			return nil
		case trimmed == "/history":
			printMessages(out, r, sess.History())
			continue
		case trimmed == "/reset":
			if err := sess.Reset(); err != nil {
				fmt.Fprintln(out, r.Note(err.Error()))
				continue
			}
			seen = 0
			fmt.Fprintln(out, r.Note("Conversation cleared."))
			continue
		case strings.HasPrefix(trimmed, "/patient"):
			patientID = strings.TrimSpace(strings.TrimPrefix(trimmed, "/patient"))
			if patientID == "" {
				fmt.Fprintln(out, r.Note("Patient cleared; mention one in your question."))
			} else {
				fmt.Fprintln(out, r.Note("Using patient "+patientID+"."))
			}
			continue
		}

		fmt.Fprintln(out, r.Pending())
		_, err := sess.Dispatch(ctx, session.SendRequested{Text: line, RecordID: patientID})
		if errors.Is(err, conversation.ErrBusy) {
			fmt.Fprintln(out, r.Note("Still waiting for the previous answer."))
			continue
		}
		if err != nil {
			log.Debug().Err(err).Msg("Chat turn did not succeed")
		}

		history := sess.History()
		for _, msg := range history[seen:] {
			if msg.Sender == conversation.SenderAgent {
				fmt.Fprintln(out, r.Message(msg))
				fmt.Fprintln(out)
			}
		}
		seen = len(history)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func printMessages(out io.Writer, r *render.Renderer, msgs []conversation.Message) {
	for _, msg := range msgs {
		fmt.Fprintln(out, r.Message(msg))
		fmt.Fprintln(out)
	}
}
