package workspace

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/meysamhadeli/buildscope/workspace/contracts"
)

// ToolProvider answers directory and configuration queries by invoking the
// workspace build tool's CLI (e.g. "catkin locate -b"). Every answer is
// cached until Refresh, since the queries cost a process spawn each.
type ToolProvider struct {
	runner  contracts.ICommandRunner
	tool    string
	profile string

	mu    sync.Mutex
	cache map[string]string
}

func NewToolProvider(runner contracts.ICommandRunner, tool string, profile string) contracts.IDirectoryProvider {
	return &ToolProvider{
		runner:  runner,
		tool:    tool,
		profile: profile,
		cache:   make(map[string]string),
	}
}

// Refresh drops every cached answer. Called when the profile may have
// changed.
func (p *ToolProvider) Refresh() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[string]string)
}

// query runs one build-tool CLI invocation and caches the trimmed output
// under the given key.
func (p *ToolProvider) query(ctx context.Context, key string, args ...string) (string, error) {
	p.mu.Lock()
	if cached, ok := p.cache[key]; ok {
		p.mu.Unlock()
		return cached, nil
	}
	p.mu.Unlock()

	if p.profile != "" {
		args = append(args, "--profile", p.profile)
	}
	stdout, stderr, exitCode, err := p.runner.Run(ctx, p.tool, args...)
	if err != nil {
		return "", fmt.Errorf("failed to invoke %s: %w", p.tool, err)
	}
	if exitCode != 0 {
		return "", fmt.Errorf("%s %s exited with code %d: %s", p.tool, strings.Join(args, " "), exitCode, strings.TrimSpace(stderr))
	}

	value := strings.TrimSpace(stdout)
	if value == "" {
		return "", fmt.Errorf("%s %s returned no output", p.tool, strings.Join(args, " "))
	}

	p.mu.Lock()
	p.cache[key] = value
	p.mu.Unlock()
	return value, nil
}

func (p *ToolProvider) GetConfigEntry(ctx context.Context, key string) (string, error) {
	return p.query(ctx, "config:"+key, "config", "--get", key)
}

func (p *ToolProvider) GetProfile(ctx context.Context) (string, error) {
	if p.profile != "" {
		return p.profile, nil
	}
	return p.query(ctx, "profile", "profile", "--active")
}

func (p *ToolProvider) GetBuildDir(ctx context.Context) (string, error) {
	return p.query(ctx, "build", "locate", "-b")
}

func (p *ToolProvider) GetSrcDir(ctx context.Context) (string, error) {
	return p.query(ctx, "src", "locate", "-s")
}

func (p *ToolProvider) GetDevelDir(ctx context.Context) (string, error) {
	return p.query(ctx, "devel", "locate", "-d")
}

func (p *ToolProvider) GetInstallDir(ctx context.Context) (string, error) {
	return p.query(ctx, "install", "locate", "-i")
}
