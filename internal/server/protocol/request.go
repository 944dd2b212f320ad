package protocol

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/yndnr/memkv-go/internal/core/domain"
)

// Buffer limits for a single request read.
const (
	DefaultBufferSize = 1024
	MinBufferSize     = 512
	MaxBufferSize     = 64 * 1024
)

// Family groups commands by the component that executes them.
type Family int

const (
	FamilyDatabase Family = iota + 1
	FamilyServer
	FamilySubscriber
	FamilyClose
)

func (f Family) String() string {
	switch f {
	case FamilyDatabase:
		return "database"
	case FamilyServer:
		return "server"
	case FamilySubscriber:
		return "subscriber"
	case FamilyClose:
		return "close"
	default:
		return "unknown"
	}
}

// Request is a parsed command.
type Request struct {
	Family Family
	Verb   string
	Args   []string
}

// String renders the request as a single trace line.
func (r *Request) String() string {
	if len(r.Args) == 0 {
		return r.Verb
	}
	return r.Verb + " " + strings.Join(r.Args, " ")
}

// Arg returns the i-th argument or "" if absent.
func (r *Request) Arg(i int) string {
	if i < 0 || i >= len(r.Args) {
		return ""
	}
	return r.Args[i]
}

// Tail joins the arguments from i onwards with single spaces.
func (r *Request) Tail(i int) string {
	if i >= len(r.Args) {
		return ""
	}
	return strings.Join(r.Args[i:], " ")
}

type spec struct {
	family  Family
	minArgs int
	maxArgs int // -1 means unbounded
}

var commands = map[string]spec{
	// strings
	"get":    {FamilyDatabase, 1, 1},
	"set":    {FamilyDatabase, 2, 2},
	"getset": {FamilyDatabase, 2, 2},
	"getdel": {FamilyDatabase, 1, 1},
	"append": {FamilyDatabase, 2, 2},
	"incrby": {FamilyDatabase, 2, 2},
	"decrby": {FamilyDatabase, 2, 2},
	"incr":   {FamilyDatabase, 1, 1},
	"decr":   {FamilyDatabase, 1, 1},

	// keyspace
	"del":      {FamilyDatabase, 1, -1},
	"exists":   {FamilyDatabase, 1, -1},
	"copy":     {FamilyDatabase, 2, 2},
	"rename":   {FamilyDatabase, 2, 2},
	"keys":     {FamilyDatabase, 1, 1},
	"type":     {FamilyDatabase, 1, 1},
	"expire":   {FamilyDatabase, 2, 2},
	"ttl":      {FamilyDatabase, 1, 1},
	"persist":  {FamilyDatabase, 1, 1},
	"idletime": {FamilyDatabase, 1, 1},

	// lists
	"lpush":  {FamilyDatabase, 2, -1},
	"rpush":  {FamilyDatabase, 2, -1},
	"lpop":   {FamilyDatabase, 1, 1},
	"rpop":   {FamilyDatabase, 1, 1},
	"llen":   {FamilyDatabase, 1, 1},
	"lindex": {FamilyDatabase, 2, 2},
	"lrange": {FamilyDatabase, 3, 3},

	// sets
	"sadd":      {FamilyDatabase, 2, -1},
	"srem":      {FamilyDatabase, 2, -1},
	"smembers":  {FamilyDatabase, 1, 1},
	"sismember": {FamilyDatabase, 2, 2},
	"scard":     {FamilyDatabase, 1, 1},

	"ping":   {FamilyServer, 0, 1},
	"dbsize": {FamilyServer, 0, 0},
	"config": {FamilyServer, 2, 3},

	"subscribe":   {FamilySubscriber, 1, -1},
	"unsubscribe": {FamilySubscriber, 0, -1},
	"publish":     {FamilySubscriber, 2, -1},
	"channels":    {FamilySubscriber, 0, 1},
	"numsub":      {FamilySubscriber, 1, 1},
	"monitor":     {FamilySubscriber, 0, 0},

	"quit":  {FamilyClose, 0, 0},
	"close": {FamilyClose, 0, 0},
}

// Known reports whether verb names a command.
func Known(verb string) bool {
	_, ok := commands[strings.ToLower(verb)]
	return ok
}

// Verbs returns every command verb, sorted.
func Verbs() []string {
	out := make([]string, 0, len(commands))
	for v := range commands {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Parse decodes one read into a Request.
//
// Empty or blank input yields ErrEmptyInput and invalid UTF-8 yields
// ErrNonUTF8. An unknown verb or a wrong argument count yields
// ErrInvalidCommand.
func Parse(b []byte) (*Request, error) {
	if len(b) == 0 {
		return nil, domain.ErrEmptyInput
	}
	if !utf8.Valid(b) {
		return nil, domain.ErrNonUTF8
	}

	fields := strings.Fields(string(b))
	if len(fields) == 0 {
		return nil, domain.ErrEmptyInput
	}

	verb := strings.ToLower(fields[0])
	args := fields[1:]

	sp, ok := commands[verb]
	if !ok {
		return nil, domain.ErrInvalidCommand.WithCause(unknownVerb(verb))
	}
	if len(args) < sp.minArgs || (sp.maxArgs >= 0 && len(args) > sp.maxArgs) {
		return nil, domain.ErrInvalidCommand.WithCause(domain.ErrWrongArity)
	}

	if verb == "config" {
		if err := checkConfig(args); err != nil {
			return nil, err
		}
		args[0] = strings.ToLower(args[0])
	}

	return &Request{Family: sp.family, Verb: verb, Args: args}, nil
}

func checkConfig(args []string) error {
	switch strings.ToLower(args[0]) {
	case "get":
		if len(args) == 2 {
			return nil
		}
	case "set":
		if len(args) == 3 {
			return nil
		}
	default:
		return domain.ErrInvalidCommand.WithCause(unknownVerb("config " + args[0]))
	}
	return domain.ErrInvalidCommand.WithCause(domain.ErrWrongArity)
}

type unknownVerb string

func (u unknownVerb) Error() string {
	return "unknown command '" + string(u) + "'"
}
