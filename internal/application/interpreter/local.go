package interpreter

import (
	"context"
	"strings"
	"time"

	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/ports"
)

// Command names understood by the local simulator.
const (
	CmdHelp   = "help"
	CmdEcho   = "echo"
	CmdLs     = "ls"
	CmdCd     = "cd"
	CmdPwd    = "pwd"
	CmdCat    = "cat"
	CmdClear  = "clear"
	CmdWhoami = "whoami"
	CmdUname  = "uname"
	CmdDate   = "date"

	// CmdUnknown labels unrecognized commands in metrics.
	CmdUnknown = "unknown"
)

var helpLines = []string{
	"Available commands:",
	"help - Show this help message",
	"clear - Clear the terminal",
	"echo [text] - Display text",
	"ls [path] - List directory contents",
	"cd [path] - Change directory",
	"pwd - Print working directory",
	"cat [file] - Display file contents",
	"whoami - Show the current user",
	"uname - Show system information",
	"date - Show the current date",
}

const (
	simulatedUser   = "user"
	simulatedSystem = "Web Command Center"
)

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time { return time.Now() }

var _ ports.Clock = SystemClock{}

// Local simulates a shell over an immutable in-memory tree mounted at
// domain.HomePath.
type Local struct {
	root  *domain.Node
	clock ports.Clock
}

var _ ports.Interpreter = (*Local)(nil)

// NewLocal builds a local interpreter. A nil root uses the demo tree.
func NewLocal(root *domain.Node, clock ports.Clock) *Local {
	if root == nil {
		root = domain.DefaultTree()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Local{root: root, clock: clock}
}

// Mode implements ports.Interpreter.
func (l *Local) Mode() domain.Mode {
	return domain.ModeLocal
}

// Interpret implements ports.Interpreter.
func (l *Local) Interpret(_ context.Context, req domain.Request) domain.Result {
	token, args := Parse(req.Line)
	if token == "" {
		return domain.Result{}
	}
	cwd := req.Cwd
	if cwd == "" {
		cwd = domain.HomePath
	}

	name := strings.ToLower(token)
	switch name {
	case CmdHelp:
		return named(name, domain.Result{Output: domain.LinesOutput(append([]string(nil), helpLines...))})
	case CmdEcho:
		return named(name, domain.Result{Output: domain.TextOutput(strings.Join(args, " "))})
	case CmdLs:
		return named(name, l.list(firstArg(args), cwd))
	case CmdCd:
		return named(name, l.changeDir(firstArg(args), cwd))
	case CmdPwd:
		return named(name, domain.Result{Output: domain.TextOutput(cwd)})
	case CmdCat:
		return named(name, l.cat(args, cwd))
	case CmdClear:
		return named(name, domain.Result{Clear: true})
	case CmdWhoami:
		return named(name, domain.Result{Output: domain.TextOutput(simulatedUser)})
	case CmdUname:
		return named(name, domain.Result{Output: domain.TextOutput(simulatedSystem)})
	case CmdDate:
		return named(name, domain.Result{Output: domain.TextOutput(l.clock.Now().Format(time.UnixDate))})
	default:
		return named(CmdUnknown, domain.Result{
			Output: domain.TextOutput("Command not found: " + token + ". Type 'help' for available commands."),
			Err:    &domain.CommandError{Command: token, Err: domain.ErrUnknownCommand},
		})
	}
}

func (l *Local) list(arg, cwd string) domain.Result {
	abs := cwd
	if arg != "" {
		abs = domain.AbsolutePath(arg, cwd)
	}
	node, err := l.resolve(abs)
	if err != nil {
		return failure(CmdLs, displayArg(arg, cwd), err)
	}
	if !node.IsDir() {
		return failure(CmdLs, displayArg(arg, cwd), domain.ErrNotADirectory)
	}

	names := node.ChildNames()
	lines := make([]string, 0, len(names))
	for _, name := range names {
		child, _ := node.Child(name)
		if child.IsDir() {
			name += "/"
		}
		lines = append(lines, name)
	}
	return domain.Result{Output: domain.LinesOutput(lines)}
}

func (l *Local) changeDir(arg, cwd string) domain.Result {
	abs := domain.AbsolutePath(arg, cwd)
	node, err := l.resolve(abs)
	if err != nil {
		return failure(CmdCd, displayArg(arg, cwd), err)
	}
	if !node.IsDir() {
		return failure(CmdCd, arg, domain.ErrNotADirectory)
	}
	return domain.Result{Output: domain.TextOutput("")}.WithCwd(domain.JoinPath(domain.SplitPath(abs)))
}

func (l *Local) cat(args []string, cwd string) domain.Result {
	if len(args) == 0 {
		return domain.Result{
			Output: domain.TextOutput("cat: No file specified"),
			Err:    &domain.CommandError{Command: CmdCat, Err: domain.ErrMissingArgument},
		}
	}
	arg := args[0]
	node, err := l.resolve(domain.AbsolutePath(arg, cwd))
	if err != nil {
		return failure(CmdCat, arg, err)
	}
	if node.IsDir() {
		return failure(CmdCat, arg, domain.ErrNotAFile)
	}
	return domain.Result{Output: domain.TextOutput(node.Content())}
}

// resolve walks an absolute path from the tree root. Paths outside the mount
// do not exist.
func (l *Local) resolve(abs string) (*domain.Node, error) {
	segments, ok := domain.MountSegments(abs)
	if !ok {
		return nil, domain.ErrPathNotFound
	}
	return l.root.Walk(segments)
}

// failure is the single place where taxonomy errors become user-facing text.
func failure(command, arg string, err error) domain.Result {
	var text string
	switch err {
	case domain.ErrNotADirectory:
		text = command + ": " + arg + ": Not a directory"
	case domain.ErrNotAFile:
		text = command + ": " + arg + ": Not a file"
	default:
		err = domain.ErrPathNotFound
		text = command + ": " + arg + ": No such file or directory"
	}
	return domain.Result{
		Output: domain.TextOutput(text),
		Err:    &domain.CommandError{Command: command, Arg: arg, Err: err},
	}
}

func displayArg(arg, cwd string) string {
	if arg == "" {
		return cwd
	}
	return arg
}

func named(command string, res domain.Result) domain.Result {
	res.Command = command
	return res
}
