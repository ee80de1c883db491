// Package marketplacectl implements the marketplace command-line client.
package marketplacectl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	entrypoint "github.com/joshorndorff/marketplace/internal/platform/cmd"
	platformgrpc "github.com/joshorndorff/marketplace/internal/platform/grpc"
	"github.com/joshorndorff/marketplace/internal/platform/logging"
	"github.com/joshorndorff/marketplace/internal/platform/timeouts"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/api/grpc/auth"
	grpcmarketplace "github.com/joshorndorff/marketplace/internal/services/marketplace/api/grpc/marketplace"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/listing"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/reputation"
)

// Config holds client defaults loaded from the environment.
type Config struct {
	Addr     string        `env:"MARKETPLACE_ADDR" envDefault:"localhost:8095"`
	Token    string        `env:"MARKETPLACE_TOKEN"`
	TokenKey string        `env:"MARKETPLACE_TOKEN_KEY"`
	Timeout  time.Duration `env:"MARKETPLACE_TIMEOUT" envDefault:"5s"`
	LogLevel string        `env:"MARKETPLACE_LOG_LEVEL" envDefault:"warn"`
}

type cli struct {
	cfg Config
	out io.Writer
}

// NewRootCommand builds the marketplacectl command tree writing results to out.
func NewRootCommand(out io.Writer) (*cobra.Command, error) {
	c := &cli{out: out}
	if err := entrypoint.ParseConfig(&c.cfg); err != nil {
		return nil, err
	}

	root := &cobra.Command{
		Use:           entrypoint.ServiceMarketplaceCtl,
		Short:         "Marketplace command-line client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	flags := root.PersistentFlags()
	flags.StringVar(&c.cfg.Addr, "addr", c.cfg.Addr, "Marketplace gRPC address")
	flags.StringVar(&c.cfg.Token, "token", c.cfg.Token, "Caller bearer token")
	flags.DurationVar(&c.cfg.Timeout, "timeout", c.cfg.Timeout, "Per-command timeout")
	flags.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "Client log level")

	root.AddCommand(
		c.tokenCmd(),
		c.postCmd(),
		c.listingIDCmd("cancel", "Cancel one of your active listings", func(ctx context.Context, client *grpcmarketplace.Client, id listing.ID, opts ...grpc.CallOption) error {
			return client.CancelListing(ctx, id, opts...)
		}),
		c.listingIDCmd("buy", "Buy an active listing", func(ctx context.Context, client *grpcmarketplace.Client, id listing.ID, opts ...grpc.CallOption) error {
			return client.Buy(ctx, id, opts...)
		}),
		c.reviewCmd(),
		c.getListingCmd(),
		c.nextIDCmd(),
		c.reputationCmd(),
	)
	return root, nil
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, out io.Writer, args []string) error {
	root, err := NewRootCommand(out)
	if err != nil {
		return err
	}
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		return describeError(err)
	}
	return nil
}

func (c *cli) tokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <account>",
		Short: "Issue a caller token signed with MARKETPLACE_TOKEN_KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := auth.NewTokens([]byte(c.cfg.TokenKey), nil)
			if err != nil {
				return fmt.Errorf("MARKETPLACE_TOKEN_KEY: %w", err)
			}
			token, err := tokens.Issue(listing.AccountID(args[0]), ttl)
			if err != nil {
				return err
			}
			return c.print(map[string]any{"account": args[0], "token": token})
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime (0 never expires)")
	return cmd
}

func (c *cli) postCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post <price> <description>",
		Short: "Post a listing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := parseUint32("price", args[0])
			if err != nil {
				return err
			}
			description, err := parseUint32("description", args[1])
			if err != nil {
				return err
			}
			return c.withClient(cmd.Context(), func(ctx context.Context, client *grpcmarketplace.Client) error {
				id, err := client.PostListing(ctx, price, description, c.callerCreds())
				if err != nil {
					return err
				}
				return c.print(map[string]any{grpcmarketplace.FieldListingID: uint32(id)})
			})
		},
	}
}

type listingCall func(ctx context.Context, client *grpcmarketplace.Client, id listing.ID, opts ...grpc.CallOption) error

func (c *cli) listingIDCmd(use, short string, call listingCall) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <listing-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := listing.ParseID(args[0])
			if err != nil {
				return err
			}
			return c.withClient(cmd.Context(), func(ctx context.Context, client *grpcmarketplace.Client) error {
				if err := call(ctx, client, id, c.callerCreds()); err != nil {
					return err
				}
				return c.print(map[string]any{grpcmarketplace.FieldListingID: uint32(id), "ok": true})
			})
		},
	}
}

func (c *cli) reviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review <listing-id> <positive|neutral|negative>",
		Short: "Review the other party of a sale",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := listing.ParseID(args[0])
			if err != nil {
				return err
			}
			feedback, err := reputation.ParseFeedback(args[1])
			if err != nil {
				return err
			}
			return c.withClient(cmd.Context(), func(ctx context.Context, client *grpcmarketplace.Client) error {
				if err := client.Review(ctx, id, feedback, c.callerCreds()); err != nil {
					return err
				}
				return c.print(map[string]any{grpcmarketplace.FieldListingID: uint32(id), grpcmarketplace.FieldFeedback: feedback.String()})
			})
		},
	}
}

func (c *cli) getListingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listing <listing-id>",
		Short: "Show a live listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := listing.ParseID(args[0])
			if err != nil {
				return err
			}
			return c.withClient(cmd.Context(), func(ctx context.Context, client *grpcmarketplace.Client) error {
				view, err := client.GetListing(ctx, id)
				if err != nil {
					return err
				}
				fields := map[string]any{
					grpcmarketplace.FieldListingID:   uint32(view.ID),
					grpcmarketplace.FieldSeller:      view.Listing.Seller,
					grpcmarketplace.FieldPrice:       view.Listing.Price,
					grpcmarketplace.FieldDescription: view.Listing.Description,
					grpcmarketplace.FieldStatus:      view.Status,
				}
				if view.HasBuyer {
					fields[grpcmarketplace.FieldBuyer] = view.Buyer
				}
				return c.print(fields)
			})
		},
	}
}

func (c *cli) nextIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next-id",
		Short: "Show the id the next listing will receive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withClient(cmd.Context(), func(ctx context.Context, client *grpcmarketplace.Client) error {
				next, err := client.NextID(ctx)
				if err != nil {
					return err
				}
				return c.print(map[string]any{grpcmarketplace.FieldNextID: uint32(next)})
			})
		},
	}
}

func (c *cli) reputationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reputation <account>",
		Short: "Show an account's reputation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withClient(cmd.Context(), func(ctx context.Context, client *grpcmarketplace.Client) error {
				fields, err := client.Reputation(ctx, listing.AccountID(args[0]))
				if err != nil {
					return err
				}
				fields[grpcmarketplace.FieldAccount] = args[0]
				return c.print(fields)
			})
		},
	}
}

func (c *cli) withClient(ctx context.Context, run func(ctx context.Context, client *grpcmarketplace.Client) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := c.cfg.Timeout
	if timeout <= 0 {
		timeout = timeouts.GRPCRequest
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger, err := logging.New(entrypoint.ServiceMarketplaceCtl, c.cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	conn, err := platformgrpc.DialWithHealth(ctx, c.cfg.Addr, timeouts.GRPCDial, logger)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	return run(ctx, grpcmarketplace.NewClient(conn))
}

func (c *cli) callerCreds() grpc.CallOption {
	return grpc.PerRPCCredentials(auth.BearerCredentials{Token: c.cfg.Token})
}

func (c *cli) print(value any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func parseUint32(name, value string) (uint32, error) {
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s must be an unsigned 32-bit integer: %w", name, err)
	}
	return uint32(n), nil
}

// describeError prefers the server's localized message over the raw status.
func describeError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, detail := range st.Details() {
		if msg, ok := detail.(*errdetails.LocalizedMessage); ok && msg.GetMessage() != "" {
			return fmt.Errorf("%s: %s", st.Code(), msg.GetMessage())
		}
	}
	return errors.New(st.Code().String() + ": " + st.Message())
}
