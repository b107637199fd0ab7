package gitplumbing

import "context"

// ConfigScope identifies which git config file a read/write targets.
type ConfigScope string

const (
	ScopeLocal  ConfigScope = "local"
	ScopeGlobal ConfigScope = "global"
	ScopeSystem ConfigScope = "system"
)

func (s ConfigScope) flag() string {
	switch s {
	case ScopeGlobal:
		return "--global"
	case ScopeSystem:
		return "--system"
	default:
		return "--local"
	}
}

// UserIdentity returns the configured user in "Name <email>" format.
func (g *Git) UserIdentity(ctx context.Context) string {
	name, _ := g.Run(ctx, "config", "user.name")
	email, _ := g.Run(ctx, "config", "user.email")
	switch {
	case name != "" && email != "":
		return name + " <" + email + ">"
	case name != "":
		return name
	case email != "":
		return email
	default:
		return ""
	}
}

// ConfigGet reads a git config value from the merged chain, or from a
// specific scope when scope is non-empty.
func (g *Git) ConfigGet(ctx context.Context, key string, scope ConfigScope) (string, error) {
	args := []string{"config"}
	if scope != "" {
		args = append(args, scope.flag())
	}
	args = append(args, "--get", key)
	return g.Run(ctx, args...)
}

// ConfigSet writes a git config value in the given scope.
func (g *Git) ConfigSet(ctx context.Context, key, value string, scope ConfigScope) error {
	return g.RunSilent(ctx, "config", scope.flag(), key, value)
}

// ConfigGetFile reads a key from an arbitrary git-config-formatted file
// (used for onyo's own .onyo/config, which is tracked in git but is not
// part of the repository's own git config chain).
func (g *Git) ConfigGetFile(ctx context.Context, file, key string) (string, error) {
	return g.Run(ctx, "config", "--file", file, "--get", key)
}

// ConfigSetFile writes a key into an arbitrary git-config-formatted file.
func (g *Git) ConfigSetFile(ctx context.Context, file, key, value string) error {
	return g.RunSilent(ctx, "config", "--file", file, key, value)
}

// ConfigUnsetFile removes a key from an arbitrary git-config-formatted file.
// `git config --unset` on a missing key exits 5; treated as a no-op to
// match the idempotent removal semantics the rest of onyo relies on.
func (g *Git) ConfigUnsetFile(ctx context.Context, file, key string) error {
	err := g.RunSilent(ctx, "config", "--file", file, "--unset", key)
	if gitErr, ok := err.(*GitError); ok && gitErr.ExitCode() == 5 {
		return nil
	}
	return err
}
