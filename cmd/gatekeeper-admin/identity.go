package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/target/gatekeeper/internal/adapters/bcrypt"
	redisadapter "github.com/target/gatekeeper/internal/adapters/redis"
	"github.com/target/gatekeeper/internal/data"
	"github.com/target/gatekeeper/internal/domain/model"
	apperrors "github.com/target/gatekeeper/internal/errors"
)

type identityOptions struct {
	ID            string
	Capabilities  []string
	PasswordStdin bool
	Limit         int
	Offset        int
}

// parseIdentityFlags parses the flags shared by the identity commands; requireID rejects an empty -id.
func parseIdentityFlags(name string, args []string, requireID bool) (identityOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts identityOptions
	var caps string
	fs.StringVar(&opts.ID, "id", "", "Identity identifier (token subject)")
	fs.StringVar(&caps, "capabilities", "", "Comma-separated capabilities")
	fs.BoolVar(&opts.PasswordStdin, "password-stdin", false, "Read a password from stdin")
	fs.IntVar(&opts.Limit, "limit", 50, "Maximum rows to list")
	fs.IntVar(&opts.Offset, "offset", 0, "Rows to skip")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.ID = strings.TrimSpace(opts.ID)
	if requireID && opts.ID == "" {
		return opts, errors.New("-id is required")
	}
	opts.Capabilities = splitList(caps)
	return opts, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// readPassword reads the first line of r.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password must not be empty")
	}
	return line, nil
}

func runIdentityAdd(cmdCtx *commandContext, args []string) error {
	opts, err := parseIdentityFlags("identity-add", args, true)
	if err != nil {
		return err
	}

	req := &model.CreateIdentityRequest{ID: opts.ID, Capabilities: opts.Capabilities}
	if opts.PasswordStdin {
		password, readErr := readPassword(cmdCtx.In)
		if readErr != nil {
			return readErr
		}
		hash, hashErr := bcrypt.Hasher{Cost: cmdCtx.Config.Auth.BcryptCost}.Hash(password)
		if hashErr != nil {
			return hashErr
		}
		req.PasswordHash = hash
	}

	return withIdentityRepo(cmdCtx, func(ctx context.Context, repo *data.IdentityRepo) error {
		rec, createErr := repo.Create(ctx, req)
		if apperrors.IsConflict(createErr) {
			return fmt.Errorf("identity %q already exists", req.ID)
		}
		if createErr != nil {
			return createErr
		}
		cmdCtx.Logger.Info("identity created", "id", rec.ID, "has_password", rec.PasswordHash != nil)
		return printIdentities(cmdCtx.Out, rec)
	})
}

func runIdentityList(cmdCtx *commandContext, args []string) error {
	opts, err := parseIdentityFlags("identity-list", args, false)
	if err != nil {
		return err
	}
	return withIdentityRepo(cmdCtx, func(ctx context.Context, repo *data.IdentityRepo) error {
		recs, listErr := repo.List(ctx, opts.Limit, opts.Offset)
		if listErr != nil {
			return listErr
		}
		if len(recs) == 0 {
			return writeln(cmdCtx.Out, "(no identities found)")
		}
		return printIdentities(cmdCtx.Out, recs...)
	})
}

func runIdentityShow(cmdCtx *commandContext, args []string) error {
	opts, err := parseIdentityFlags("identity-show", args, true)
	if err != nil {
		return err
	}
	return withIdentityRepo(cmdCtx, func(ctx context.Context, repo *data.IdentityRepo) error {
		rec, getErr := repo.Get(ctx, opts.ID)
		if getErr != nil {
			return fmt.Errorf("identity %q: %w", opts.ID, getErr)
		}
		return printIdentities(cmdCtx.Out, rec)
	})
}

func runIdentityGrant(cmdCtx *commandContext, args []string) error {
	opts, err := parseIdentityFlags("identity-grant", args, true)
	if err != nil {
		return err
	}
	if err := withIdentityRepo(cmdCtx, func(ctx context.Context, repo *data.IdentityRepo) error {
		rec, setErr := repo.SetCapabilities(ctx, opts.ID, opts.Capabilities)
		if setErr != nil {
			return fmt.Errorf("identity %q: %w", opts.ID, setErr)
		}
		return printIdentities(cmdCtx.Out, rec)
	}); err != nil {
		return err
	}
	return evictIfCached(cmdCtx, opts.ID)
}

func runIdentityDelete(cmdCtx *commandContext, args []string) error {
	opts, err := parseIdentityFlags("identity-delete", args, true)
	if err != nil {
		return err
	}
	if err := withIdentityRepo(cmdCtx, func(ctx context.Context, repo *data.IdentityRepo) error {
		deleted, delErr := repo.Delete(ctx, opts.ID)
		if delErr != nil {
			return delErr
		}
		if !deleted {
			return writef(cmdCtx.Out, "identity %q not found\n", opts.ID)
		}
		return writef(cmdCtx.Out, "identity %q deleted\n", opts.ID)
	}); err != nil {
		return err
	}
	return evictIfCached(cmdCtx, opts.ID)
}

func runCacheEvict(cmdCtx *commandContext, args []string) error {
	opts, err := parseIdentityFlags("cache-evict", args, true)
	if err != nil {
		return err
	}
	return withIdentityCache(cmdCtx, func(ctx context.Context, cache *redisadapter.IdentityCache) error {
		evicted, evictErr := cache.Evict(ctx, opts.ID)
		if evictErr != nil {
			return evictErr
		}
		return writef(cmdCtx.Out, "evicted=%t id=%s\n", evicted, opts.ID)
	})
}

// evictIfCached drops a changed identity from Redis so the service stops serving the stale copy.
// In-process caches expire on their own TTL.
func evictIfCached(cmdCtx *commandContext, id string) error {
	err := withIdentityCache(cmdCtx, func(ctx context.Context, cache *redisadapter.IdentityCache) error {
		_, evictErr := cache.Evict(ctx, id)
		return evictErr
	})
	if errors.Is(err, errRedisCacheDisabled) {
		return nil
	}
	return err
}

func runHashPassword(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	cost := fs.Int("cost", cmdCtx.Config.Auth.BcryptCost, "bcrypt cost")
	if err := fs.Parse(args); err != nil {
		return err
	}

	password, err := readPassword(cmdCtx.In)
	if err != nil {
		return err
	}
	hash, err := bcrypt.Hasher{Cost: *cost}.Hash(password)
	if err != nil {
		return err
	}
	return writeln(cmdCtx.Out, hash)
}

func printIdentities(w io.Writer, recs ...*model.IdentityRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "ID\tPASSWORD\tCAPABILITIES\tUPDATED\n"); err != nil {
		return err
	}
	for _, rec := range recs {
		password := "no"
		if rec.PasswordHash != nil {
			password = "yes"
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\n",
			rec.ID, password, strings.Join(rec.Capabilities, ","), rec.UpdatedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}
