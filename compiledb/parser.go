package compiledb

import (
	"context"
	"strings"
	"sync"

	"github.com/meysamhadeli/buildscope/workspace/models"
)

// DefaultsResolver yields the implicit include search paths of a compiler.
// Satisfied by toolchain.Resolver.
type DefaultsResolver interface {
	ResolveDefaults(ctx context.Context, compilerPath string, remainingArgs []string) []string
}

// Parser interprets raw compiler invocations into ParsedFlags.
//
// Commands are tokenized on whitespace with no shell-quote awareness; paths
// containing spaces are a documented limitation. The recognized flag surface
// is -I<path>, -isystem <path>, -isystem=<path> and -D<value>.
type Parser struct {
	resolver         DefaultsResolver
	isWorkspaceLocal func(path string) bool

	mu               sync.Mutex
	knownSystemPaths map[string]bool
}

// NewParser creates a Parser. workspacePredicate reports whether a path
// lies inside the workspace; paths outside it are classified as system
// include paths.
func NewParser(resolver DefaultsResolver, workspacePredicate func(path string) bool) *Parser {
	return &Parser{
		resolver:         resolver,
		isWorkspaceLocal: workspacePredicate,
		knownSystemPaths: make(map[string]bool),
	}
}

// Reset forgets every system path seen so far. Called on a full reload.
func (p *Parser) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.knownSystemPaths = make(map[string]bool)
}

// Parse extracts include paths, defines and the compiler path from one
// compile record. The returned bool reports whether a system include path
// unknown to this parser instance was discovered, so callers can coalesce
// one change signal per database update.
func (p *Parser) Parse(ctx context.Context, record models.CompileRecord) (*models.ParsedFlags, bool) {
	flags := &models.ParsedFlags{}

	tokens := strings.Fields(record.Command)
	if len(tokens) == 0 {
		return flags, false
	}
	flags.CompilerPath = tokens[0]

	newSystemPath := false
	seenInclude := make(map[string]bool)

	addInclude := func(path string) {
		if seenInclude[path] {
			return
		}
		seenInclude[path] = true
		flags.IncludePaths = append(flags.IncludePaths, path)
		if p.isWorkspaceLocal(path) {
			return
		}
		flags.SystemIncludePaths = append(flags.SystemIncludePaths, path)

		p.mu.Lock()
		if !p.knownSystemPaths[path] {
			p.knownSystemPaths[path] = true
			newSystemPath = true
		}
		p.mu.Unlock()
	}

	args := tokens[1:]
	for i := 0; i < len(args); i++ {
		token := args[i]
		switch {
		case token == "-isystem" && i+1 < len(args):
			addInclude(args[i+1])
			i++
		case strings.HasPrefix(token, "-isystem="):
			addInclude(token[len("-isystem="):])
		case strings.HasPrefix(token, "-I") && len(token) > 2:
			addInclude(token[2:])
		case strings.HasPrefix(token, "-D") && len(token) > 2:
			flags.Defines = append(flags.Defines, strings.ReplaceAll(token[2:], `\`, ""))
		}
	}

	// Toolchain defaults go after every explicit path so they never shadow
	// one. The remaining arguments let wrapper dialects find the real
	// compiler.
	for _, path := range p.resolver.ResolveDefaults(ctx, flags.CompilerPath, args) {
		addInclude(path)
	}

	return flags, newSystemPath
}
