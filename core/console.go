package core

import "strings"

// Reply prefixes of the console line protocol
const (
	ReplyOK  = "ok"
	ReplyErr = "err"
)

// ConsoleHandler handles one console command.
// args excludes the command name. The returned string is the full reply line.
type ConsoleHandler func(args []string) string

// ConsoleCommand is a registered console command
type ConsoleCommand struct {
	Name    string
	Usage   string
	Handler ConsoleHandler
}

// Console dispatches text commands received over the serial link.
// Each input line yields exactly one reply line.
type Console struct {
	commands map[string]*ConsoleCommand
	order    []string
}

// NewConsole creates an empty console
func NewConsole() *Console {
	c := &Console{
		commands: make(map[string]*ConsoleCommand),
	}
	c.Register("help", "help", c.handleHelp)
	return c
}

// Register adds a command. Re-registering a name replaces its handler.
func (c *Console) Register(name, usage string, handler ConsoleHandler) {
	if _, exists := c.commands[name]; !exists {
		c.order = append(c.order, name)
	}
	c.commands[name] = &ConsoleCommand{
		Name:    name,
		Usage:   usage,
		Handler: handler,
	}
}

// Lookup returns the command registered under name
func (c *Console) Lookup(name string) (*ConsoleCommand, bool) {
	cmd, ok := c.commands[name]
	return cmd, ok
}

// Dispatch runs one input line and returns the reply.
// Blank lines return an empty reply, which callers should not send.
func (c *Console) Dispatch(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	cmd, ok := c.commands[fields[0]]
	if !ok {
		return ErrReply("unknown command: " + fields[0])
	}
	return cmd.Handler(fields[1:])
}

func (c *Console) handleHelp(args []string) string {
	return OKReply("commands", strings.Join(c.order, ","))
}

// OKReply builds "ok k1=v1 k2=v2 ...". kv must have even length.
func OKReply(kv ...string) string {
	var sb strings.Builder
	sb.WriteString(ReplyOK)
	for i := 0; i+1 < len(kv); i += 2 {
		sb.WriteByte(' ')
		sb.WriteString(kv[i])
		sb.WriteByte('=')
		sb.WriteString(kv[i+1])
	}
	return sb.String()
}

// ErrReply builds "err <msg>"
func ErrReply(msg string) string {
	return ReplyErr + " " + msg
}

// MaxSettableEpoch is 9999-12-31 23:59:59 UTC, the last time that still
// formats with a four digit year.
const MaxSettableEpoch = 253402300799

func boolField(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// InitBootClockCommands registers the boot clock commands on c.
//
// Replies:
//
//	now         ok date=YYYY-MM-DD time=HH:MM:SS epoch=N
//	boot_delta  ok delta=N known=0|1
//	delta       ok delta=N known=0|1
//	status      ok connected=0|1 previous=N boot_delta=N
//	tick        ok updated=0|1
//	set EPOCH   ok epoch=N
func InitBootClockCommands(c *Console, bc *BootClock) {
	c.Register("now", "now", func(args []string) string {
		t := bc.Now()
		date, clock, _ := strings.Cut(FormatDateTime(t), " ")
		return OKReply(
			"date", date,
			"time", clock,
			"epoch", itoa(t.Unix()),
		)
	})

	c.Register("boot_delta", "boot_delta", func(args []string) string {
		d := bc.BootDelta()
		return OKReply("delta", itoa(int64(d)), "known", boolField(d.Known()))
	})

	c.Register("delta", "delta", func(args []string) string {
		d := bc.RecomputeDelta()
		return OKReply("delta", itoa(int64(d)), "known", boolField(d.Known()))
	})

	c.Register("status", "status", func(args []string) string {
		return OKReply(
			"connected", boolField(bc.IsConnected()),
			"previous", utoa(bc.PreviousBoot()),
			"boot_delta", itoa(int64(bc.BootDelta())),
		)
	})

	c.Register("tick", "tick", func(args []string) string {
		return OKReply("updated", boolField(bc.Tick()))
	})

	c.Register("set", "set EPOCH", func(args []string) string {
		if len(args) != 1 {
			return ErrReply("usage: set EPOCH")
		}
		epoch, ok := atou(args[0])
		if !ok || epoch > MaxSettableEpoch {
			return ErrReply("invalid epoch: " + args[0])
		}
		if err := bc.SetTime(epochToTime(epoch)); err != nil {
			return ErrReply(err.Error())
		}
		return OKReply("epoch", utoa(epoch))
	})
}
