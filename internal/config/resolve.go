package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os/exec"
	"strings"
)

// ResolveValue expands the indirection schemes allowed in secret-bearing
// config fields (server.url, server.token, keys.openrouter):
//
//	op://vault/item/field         1Password item, read through the op CLI
//	srv://_svc._tcp.example/path  DNS SRV lookup, rewritten to an https URL
//	$(cmd)                        trimmed stdout of a shell command
//	${VAR} or $VAR                environment variable
//
// Anything else is returned as-is, so plain tokens in the yaml keep working.
func ResolveValue(value string) (string, error) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return "", nil
	case strings.HasPrefix(value, "op://"):
		return opRead(value)
	case strings.HasPrefix(value, "srv://"):
		return srvLookup(value)
	case strings.HasPrefix(value, "$(") && strings.HasSuffix(value, ")"):
		return shellOut(value[2 : len(value)-1])
	}
	return expandEnv(value), nil
}

// opRead shells out to `op read`. A ?account= query selects among multiple
// signed-in 1Password accounts; it is stripped before handing the reference
// to the CLI.
func opRead(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("op: bad reference %q: %w", ref, err)
	}
	item := "op://" + u.Host + u.Path
	args := []string{"read", item}
	if account := u.Query().Get("account"); account != "" {
		args = append(args, "--account", account)
	}
	out, err := exec.Command("op", args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("op read %s: %s", item, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("op read %s: %w (op CLI missing or signed out?)", item, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// srvLookup turns srv://_codeswap._tcp.example.com/v1 into an https URL
// against the best SRV target, so config files can follow a backend that
// moves between hosts.
func srvLookup(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("srv: bad reference %q: %w", ref, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("srv: reference %q has no record name", ref)
	}
	// Go's resolver already orders addrs by priority and weight.
	_, addrs, err := net.LookupSRV("", "", u.Host)
	if err != nil {
		return "", fmt.Errorf("srv: lookup %s: %w", u.Host, err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("srv: no records for %s", u.Host)
	}
	target := strings.TrimSuffix(addrs[0].Target, ".")
	return fmt.Sprintf("https://%s:%d%s", target, addrs[0].Port, u.Path), nil
}

// shellOut runs cmd under sh and returns its trimmed stdout.
func shellOut(cmd string) (string, error) {
	out, err := exec.Command("sh", "-c", cmd).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("command %q: %s", cmd, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("command %q: %w", cmd, err)
	}
	return strings.TrimSpace(string(out)), nil
}
