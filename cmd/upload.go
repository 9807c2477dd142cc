package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/medassist/internal/session"
	"github.com/medassist/internal/upload"
)

// UploadCommand returns the upload command
func UploadCommand() *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "Upload patient record files (PDF, TXT, CSV)",
		ArgsUsage: "FILE [FILE...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "patient",
				Aliases: []string{"p"},
				Usage:   "patient ID the files belong to",
				EnvVars: []string{"MEDASSIST_PATIENT_ID"},
			},
			&cli.StringFlag{Name: "name", Usage: "patient name (optional)"},
			&cli.StringFlag{Name: "age", Usage: "patient age (optional)"},
			&cli.StringFlag{Name: "gender", Usage: "patient gender (optional)"},
		},
		Action: runUpload,
	}
}

func runUpload(c *cli.Context) error {
	cfg, err := loadedConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	req := upload.Request{
		RecordID: c.String("patient"),
		Demographics: upload.Demographics{
			Name:   c.String("name"),
			Age:    c.String("age"),
			Gender: c.String("gender"),
		},
	}

	for _, path := range c.Args().Slice() {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		req.Files = append(req.Files, upload.File{Name: path, Content: f})
	}

	sess, closeSession, err := newSession(cfg)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer closeSession()

	out, _ := sess.Dispatch(c.Context, session.UploadRequested{Request: req})
	if !out.Result.OK() {
		return fmt.Errorf("%s", out.Status)
	}

	fmt.Fprintln(c.App.Writer, out.Status)
	return nil
}
