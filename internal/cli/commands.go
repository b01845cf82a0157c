package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	appcart "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/domain/cart"
)

type cartTarget struct {
	sessionID string
	userID    string
}

func (t *cartTarget) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&t.sessionID, "session", "", "storefront session id (guest cart)")
	cmd.Flags().StringVar(&t.userID, "user", "", "user id (remote cart)")
	cmd.MarkFlagsMutuallyExclusive("session", "user")
	cmd.MarkFlagsOneRequired("session", "user")
}

func (t *cartTarget) scope() (string, string) {
	if t.sessionID != "" {
		return ScopeGuest, t.sessionID
	}
	return ScopeUser, t.userID
}

// load reads the targeted cart.
func (t *cartTarget) load(ctx context.Context, b Backend) (cart.Snapshot, error) {
	if t.sessionID != "" {
		local, err := b.LocalStore(ctx)
		if err != nil {
			return cart.Snapshot{}, WrapExitError(ExitCommandError, "guest cart store unavailable", err)
		}
		return local.Load(ctx, t.sessionID), nil
	}
	remote, err := b.RemoteStore(ctx)
	if err != nil {
		return cart.Snapshot{}, WrapExitError(ExitCommandError, "remote cart store unavailable", err)
	}
	s, err := remote.LoadForUser(ctx, t.userID)
	if err != nil {
		return cart.Snapshot{}, WrapExitError(ExitFailure, "failed to load user cart", err)
	}
	return s, nil
}

// NewShowCommand prints a guest or user cart.
func NewShowCommand(opts *RootOptions, open BackendOpener) *cobra.Command {
	target := &cartTarget{}
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a cart",
		Example: "  cartctl show --session 3f0c...\n" +
			"  cartctl show --user 42 --format json",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := newFormatter(cmd, opts)
			return withBackend(cmd, open, func(ctx context.Context, b Backend) error {
				s, err := target.load(ctx, b)
				if err != nil {
					return err
				}
				scope, owner := target.scope()
				out.VerboseLog("loaded %s cart %s: %d line(s)", scope, owner, s.Len())
				return out.Success(newCartReport(scope, owner, s))
			})
		},
	}
	target.bind(cmd)
	return cmd
}

// NewMergeCommand folds a session's guest cart into a user's remote cart
// the way sign-in does: guest quantities overwrite remote ones for the
// same product and the guest cart is cleared afterwards.
func NewMergeCommand(opts *RootOptions, open BackendOpener) *cobra.Command {
	var (
		sessionID string
		userID    string
		dryRun    bool
	)
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge a guest cart into a user cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := newFormatter(cmd, opts)
			return withBackend(cmd, open, func(ctx context.Context, b Backend) error {
				local, err := b.LocalStore(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "guest cart store unavailable", err)
				}
				remote, err := b.RemoteStore(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "remote cart store unavailable", err)
				}

				guest := local.Load(ctx, sessionID)
				report := MergeReport{SessionID: sessionID, UserID: userID, DryRun: dryRun}
				if guest.IsEmpty() {
					out.VerboseLog("guest cart %s is empty", sessionID)
				}

				if dryRun {
					current, err := remote.LoadForUser(ctx, userID)
					if err != nil {
						return WrapExitError(ExitFailure, "failed to load user cart", err)
					}
					report.Merged = guest.Len()
					report.Result = newCartReport(ScopeUser, userID, previewMerge(current, guest))
					return out.Success(report)
				}

				if !guest.IsEmpty() {
					result := appcart.MergeGuestCart(ctx, remote, userID, guest, b.Logger())
					local.Clear(ctx, sessionID)
					report.Merged, report.Dropped = result.Merged, result.Dropped
				}
				merged, err := remote.LoadForUser(ctx, userID)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to reload user cart", err)
				}
				report.Result = newCartReport(ScopeUser, userID, merged)
				if err := out.Success(report); err != nil {
					return err
				}
				if report.Dropped > 0 {
					return NewExitError(ExitFailure, fmt.Sprintf("%d guest line(s) could not be merged", report.Dropped))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "storefront session id holding the guest cart")
	cmd.Flags().StringVar(&userID, "user", "", "user id receiving the lines")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the resulting cart without writing")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// previewMerge applies guest onto remote with guest quantities winning.
func previewMerge(remote, guest cart.Snapshot) cart.Snapshot {
	out := remote
	for _, line := range guest.Lines() {
		if existing, ok := out.FindByProduct(line.ProductRef); ok {
			out = out.WithQuantity(existing.LineID, line.Quantity)
			continue
		}
		out = out.WithLine(line)
	}
	return out
}

// NewClearCommand empties a guest or user cart.
func NewClearCommand(opts *RootOptions, open BackendOpener) *cobra.Command {
	target := &cartTarget{}
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty a cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := newFormatter(cmd, opts)
			return withBackend(cmd, open, func(ctx context.Context, b Backend) error {
				before, err := target.load(ctx, b)
				if err != nil {
					return err
				}
				scope, owner := target.scope()
				if target.sessionID != "" {
					local, err := b.LocalStore(ctx)
					if err != nil {
						return WrapExitError(ExitCommandError, "guest cart store unavailable", err)
					}
					local.Clear(ctx, target.sessionID)
				} else {
					remote, err := b.RemoteStore(ctx)
					if err != nil {
						return WrapExitError(ExitCommandError, "remote cart store unavailable", err)
					}
					if err := remote.DeleteAll(ctx, target.userID); err != nil {
						return WrapExitError(ExitFailure, "failed to clear user cart", err)
					}
				}
				return out.Success(ClearReport{Scope: scope, Owner: owner, Removed: before.Len()})
			})
		},
	}
	target.bind(cmd)
	return cmd
}

// NewMintTokenCommand signs an access token for manual API testing.
func NewMintTokenCommand(opts *RootOptions, open BackendOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "mint-token <user-id>",
		Short: "Sign an access token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts)
			return withBackend(cmd, open, func(_ context.Context, b Backend) error {
				minter, err := b.Tokens()
				if err != nil {
					return WrapExitError(ExitCommandError, "token signing unavailable", err)
				}
				token, expiresAt, err := minter.Mint(args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "failed to mint token", err)
				}
				return out.Success(TokenReport{
					UserID:    args[0],
					Token:     token,
					ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
				})
			})
		},
	}
}
