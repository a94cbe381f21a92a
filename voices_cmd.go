package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/narrate/internal/persona"
	"github.com/dgnsrekt/narrate/internal/voice"
)

var voicesCmd = &cobra.Command{
	Use:     "voices",
	Short:   "List the available voices",
	Long:    paragraph(fmt.Sprintf("\n%s the voices of the offline engine followed by the configured personas. Numbers match the voice prompt.", keyword("List"))),
	Example: paragraph("narrate voices\nnarrate voices --engine piper"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadTTSConfig()
		if err != nil {
			return usageError(err)
		}
		kinds, err := persona.ParseKinds(viper.GetStringSlice("voices.personas"))
		if err != nil {
			return usageError(err)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}

		engine := newEngine(cfg, nil)
		var real []voice.Voice
		sess, err := engine.Open(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, warnStyle.Render("  ! "+engine.Name()+" is not available: "+err.Error()))
		} else {
			defer func() { _ = sess.Close() }()
			real, err = sess.Voices(ctx)
			if err != nil {
				return fmt.Errorf("unable to list %s voices: %w", engine.Name(), err)
			}
		}

		catalog := voice.NewCatalog(real, kinds)
		isTTY := term.IsTerminal(int(os.Stdout.Fd()))
		fmt.Println(voiceTable(catalog.List(), terminalWidth(isTTY)))
		return nil
	},
}
