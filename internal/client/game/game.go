// Package game builds and supervises the JVM process of a launched profile.
//
// During play three tasks cooperate: the game process, the anti-tamper
// watcher and the join responder. Completion or failure of any one cancels
// the others; a watcher violation outranks the JVM exit status.
package game

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/team-ns/launcher/internal/bytesize"
	"github.com/team-ns/launcher/internal/client"
	"github.com/team-ns/launcher/internal/client/joinbroker"
	"github.com/team-ns/launcher/internal/client/validator"
	"github.com/team-ns/launcher/internal/logger"
	"github.com/team-ns/launcher/pkg/profile"
)

// Options parameterize one launch.
type Options struct {
	GameDir string
	Profile profile.Profile
	Ram     bytesize.ByteSize

	Username    string
	UUID        uuid.UUID
	AccessToken string
}

// javaBinary is the bundled runtime's launcher executable.
func javaBinary(gameDir string) string {
	name := "java"
	if runtime.GOOS == "windows" {
		name = "java.exe"
	}
	return filepath.Join(gameDir, client.JreSubdir, "bin", name)
}

// classPath joins the resolved libraries and the profile class-path entries
// in declaration order.
func classPath(opts Options) string {
	var entries []string
	for _, lib := range opts.Profile.Libraries {
		entries = append(entries, filepath.Join(opts.GameDir, client.LibrariesSubdir, filepath.FromSlash(lib)))
	}
	for _, entry := range opts.Profile.ClassPath {
		entries = append(entries, filepath.Join(opts.GameDir, filepath.FromSlash(entry)))
	}
	return strings.Join(entries, string(os.PathListSeparator))
}

// expandArgs substitutes the launch placeholders in client arguments.
func expandArgs(args []string, opts Options) []string {
	replacer := strings.NewReplacer(
		"${username}", opts.Username,
		"${uuid}", opts.UUID.String(),
		"${accessToken}", opts.AccessToken,
		"${gameDir}", opts.GameDir,
		"${assetsDir}", filepath.Join(opts.GameDir, opts.Profile.AssetsDir),
	)
	out := make([]string, 0, len(args))
	for _, arg := range args {
		out = append(out, replacer.Replace(arg))
	}
	return out
}

// buildArgs assembles the full JVM argument vector.
func buildArgs(opts Options) []string {
	args := append([]string(nil), opts.Profile.JvmArgs...)
	args = append(args,
		fmt.Sprintf("-Xmx%dM", opts.Ram.Megabytes()),
		"-Djava.library.path="+filepath.Join(opts.GameDir, client.NativesSubdir),
		"-cp", classPath(opts),
		opts.Profile.MainClass,
	)
	return append(args, expandArgs(opts.Profile.ClientArgs, opts)...)
}

// command builds the JVM process rooted in the game directory.
func command(ctx context.Context, opts Options) *exec.Cmd {
	cmd := exec.CommandContext(ctx, javaBinary(opts.GameDir), buildArgs(opts)...)
	cmd.Dir = opts.GameDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

// Play runs the game with its watcher and join responder. The returned exit
// code is the JVM's when err is nil; on any error the caller must exit
// non-zero regardless of the code.
func Play(ctx context.Context, opts Options, v *validator.Validator,
	broker *joinbroker.Broker, session joinbroker.JoinSender) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	exitCode := 0

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		cmd := command(ctx, opts)
		logger.Info("starting game", logger.Profile(opts.Profile.Name),
			logger.Username(opts.Username))
		err := cmd.Run()
		var exitErr *exec.ExitError
		switch {
		case err == nil:
		case errors.As(err, &exitErr):
			if ctx.Err() != nil {
				// Killed by cancellation; the cause surfaces elsewhere.
				return nil
			}
			exitCode = exitErr.ExitCode()
			logger.Warn("game exited with failure", "code", exitCode)
		default:
			return fmt.Errorf("run game: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		if err := v.Watch(ctx); err != nil {
			logger.Error("tampering detected, stopping game", logger.Err(err))
			return err
		}
		return nil
	})
	g.Go(func() error {
		return broker.Serve(ctx, session)
	})

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return exitCode, nil
}
