package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"clinicchat/internal/bootstrap"
	"clinicchat/internal/config"
	"clinicchat/internal/logging"
)

// cli carries the state shared by every subcommand.
type cli struct {
	in       io.Reader
	logOut   io.Writer
	render   *renderer
	services bootstrap.Services

	user     string
	baseURL  string
	autoSend bool
}

func newRootCmd(in io.Reader, out io.Writer, logOut io.Writer) *cobra.Command {
	c := &cli{in: in, logOut: logOut, render: newRenderer(out)}

	rootCmd := &cobra.Command{
		Use:   "clinicchat",
		Short: "Chat with the clinic assistant by text or voice",
		Long: `clinicchat talks to the clinic assistant backend.

Usage modes:
  clinicchat chat              Interactive session (type, or /voice to dictate)
  clinicchat send <message>    Send one message as the active user
  clinicchat history [user]    Show stored turns
  clinicchat test              Probe the backend`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVarP(&c.user, "user", "u", "", "Active user id (default from CLINICCHAT_DEFAULT_USER)")
	rootCmd.PersistentFlags().StringVar(&c.baseURL, "base-url", "", "Backend base URL (default from CLINICCHAT_BASE_URL)")
	rootCmd.PersistentFlags().BoolVar(&c.autoSend, "auto-send", false, "Send transcriptions without confirmation")

	rootCmd.AddCommand(
		c.testCmd(),
		c.sendCmd(),
		c.historyCmd(),
		c.userCmd(),
		c.chatCmd(),
	)
	return rootCmd
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, c.logOut)

	if user := strings.TrimSpace(c.user); user != "" {
		cfg.Session.DefaultUserID = user
	}
	if baseURL := strings.TrimSpace(c.baseURL); baseURL != "" {
		cfg.Gateway.BaseURL = baseURL
	}
	if cmd.Flags().Changed("auto-send") {
		cfg.Session.AutoSend = c.autoSend
	}

	services, err := bootstrap.BuildWithConfig(cfg, c.render)
	if err != nil {
		return err
	}
	c.services = services
	return nil
}

func (c *cli) testCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Probe the backend /test endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTest(cmd.Context())
		},
	}
}

func (c *cli) sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <message>",
		Short: "Send one message as the active user",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			turn, err := c.services.Client.SendMessage(cmd.Context(), c.services.Session, strings.Join(args, " "))
			if err != nil {
				return err
			}
			c.render.TurnCompleted(turn)
			return nil
		},
	}
}

func (c *cli) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [user]",
		Short: "Show stored turns for a user (default: active user)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := c.services.Session.ActiveUserID()
			if len(args) == 1 {
				userID = args[0]
			}
			return c.runHistory(cmd.Context(), userID)
		},
	}
}

func (c *cli) userCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "user [id]",
		Short: "Show or validate the active user id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := c.services.Client.SwitchUser(c.services.Session, args[0]); err != nil {
					return err
				}
			}
			c.render.activeUser(c.services.Session.Snapshot())
			return nil
		},
	}
}

func (c *cli) chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runChat(cmd.Context())
		},
	}
}

func (c *cli) runTest(ctx context.Context) error {
	payload, err := c.services.Client.TestConnection(ctx)
	if err != nil {
		return err
	}
	pretty, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render test payload: %w", err)
	}
	c.render.probe(string(pretty))
	return nil
}

func (c *cli) runHistory(ctx context.Context, userID string) error {
	turns, err := c.services.Client.FetchHistory(ctx, userID)
	if err != nil {
		return err
	}
	c.render.history(strings.TrimSpace(userID), turns)
	return nil
}
