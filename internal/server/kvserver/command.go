package kvserver

import (
	"context"
	"sort"
	"strconv"

	"github.com/yndnr/memkv-go/internal/core/domain"
	"github.com/yndnr/memkv-go/internal/pubsub"
	"github.com/yndnr/memkv-go/internal/server/protocol"
)

// dispatch routes a parsed request to its family.
func (c *conn) dispatch(ctx context.Context, req *protocol.Request) protocol.Response {
	switch req.Family {
	case protocol.FamilyDatabase:
		return c.database(req)
	case protocol.FamilyServer:
		return c.server(req)
	case protocol.FamilySubscriber:
		return c.subscriber(ctx, req)
	case protocol.FamilyClose:
		c.quit = true
		return protocol.OK()
	default:
		return protocol.Error(domain.ErrInvalidCommand)
	}
}

// ============================================================================
// Database commands
// ============================================================================

func (c *conn) database(req *protocol.Request) protocol.Response {
	st := c.srv.store
	a := req.Args

	switch req.Verb {
	case "get":
		return valueOrError(st.Get(a[0]))
	case "set":
		st.Set(a[0], a[1])
		return protocol.OK()
	case "getset":
		return valueOrError(st.GetSet(a[0], a[1]))
	case "getdel":
		return valueOrError(st.GetDel(a[0]))
	case "append":
		return intOrError(st.Append(a[0], a[1]))
	case "incrby":
		return int64OrError(st.IncrBy(a[0], a[1]))
	case "decrby":
		return int64OrError(st.DecrBy(a[0], a[1]))
	case "incr":
		return int64OrError(st.IncrBy(a[0], "1"))
	case "decr":
		return int64OrError(st.DecrBy(a[0], "1"))

	case "del":
		return protocol.Integer(int64(st.Del(a...)))
	case "exists":
		return protocol.Integer(int64(st.Exists(a...)))
	case "copy":
		return okOrError(st.Copy(a[0], a[1]))
	case "rename":
		return okOrError(st.Rename(a[0], a[1]))
	case "keys":
		return listOrError(st.Keys(a[0]))
	case "type":
		return protocol.Value(st.Type(a[0]))
	case "expire":
		secs, err := parseInt(a[1])
		if err != nil {
			return protocol.Error(err)
		}
		found, err := st.Expire(a[0], secs)
		if err != nil {
			return protocol.Error(err)
		}
		return protocol.Bool(found)
	case "ttl":
		return protocol.Integer(st.TTL(a[0]))
	case "persist":
		return protocol.Bool(st.Persist(a[0]))
	case "idletime":
		return int64OrError(st.IdleTime(a[0]))

	case "lpush":
		return intOrError(st.LPush(a[0], a[1:]...))
	case "rpush":
		return intOrError(st.RPush(a[0], a[1:]...))
	case "lpop":
		return valueOrError(st.LPop(a[0]))
	case "rpop":
		return valueOrError(st.RPop(a[0]))
	case "llen":
		return intOrError(st.LLen(a[0]))
	case "lindex":
		idx, err := parseInt(a[1])
		if err != nil {
			return protocol.Error(err)
		}
		return valueOrError(st.LIndex(a[0], idx))
	case "lrange":
		start, err := parseInt(a[1])
		if err != nil {
			return protocol.Error(err)
		}
		stop, err := parseInt(a[2])
		if err != nil {
			return protocol.Error(err)
		}
		return listOrError(st.LRange(a[0], start, stop))

	case "sadd":
		return intOrError(st.SAdd(a[0], a[1:]...))
	case "srem":
		return intOrError(st.SRem(a[0], a[1:]...))
	case "smembers":
		return listOrError(st.SMembers(a[0]))
	case "sismember":
		ok, err := st.SIsMember(a[0], a[1])
		if err != nil {
			return protocol.Error(err)
		}
		return protocol.Bool(ok)
	case "scard":
		return intOrError(st.SCard(a[0]))
	}
	return protocol.Error(domain.ErrInvalidCommand)
}

// ============================================================================
// Server commands
// ============================================================================

func (c *conn) server(req *protocol.Request) protocol.Response {
	switch req.Verb {
	case "ping":
		if len(req.Args) == 1 {
			return protocol.Value(req.Args[0])
		}
		return protocol.Status("PONG")
	case "dbsize":
		return protocol.Integer(int64(c.srv.store.Len()))
	case "config":
		if req.Args[0] == "get" {
			return valueOrError(c.srv.live.Get(req.Args[1]))
		}
		if err := c.srv.live.Set(req.Args[1], req.Args[2]); err != nil {
			return protocol.Error(err)
		}
		c.log.Info("config changed", "key", req.Args[1], "value", req.Args[2])
		return protocol.OK()
	}
	return protocol.Error(domain.ErrInvalidCommand)
}

// ============================================================================
// Subscriber commands
// ============================================================================

func (c *conn) subscriber(ctx context.Context, req *protocol.Request) protocol.Response {
	b := c.srv.broker

	switch req.Verb {
	case "subscribe", "unsubscribe", "publish":
		if err := checkChannels(req); err != nil {
			return protocol.Error(err)
		}
	}

	switch req.Verb {
	case "subscribe":
		for _, ch := range req.Args {
			c.startPush(ctx, b.Subscribe(ch, c.id))
			c.joined[ch] = struct{}{}
		}
		return protocol.Integer(int64(len(c.joined)))

	case "unsubscribe":
		channels := req.Args
		if len(channels) == 0 {
			channels = c.joinedChannels()
		}
		for _, ch := range channels {
			if _, ok := c.joined[ch]; !ok {
				continue
			}
			b.Unsubscribe(ch, c.id)
			delete(c.joined, ch)
		}
		return protocol.Integer(int64(len(c.joined)))

	case "publish":
		n := b.Publish(req.Args[0], req.Tail(1))
		c.srv.metrics.Published(n)
		return protocol.Integer(int64(n))

	case "channels":
		return listOrError(b.ListChannels(req.Arg(0)))

	case "numsub":
		return protocol.Integer(int64(b.SubscriberCount(req.Args[0])))

	case "monitor":
		if !c.monitoring {
			c.startPush(ctx, b.Subscribe(pubsub.MonitorChannel, c.id))
			c.monitoring = true
		}
		return protocol.OK()
	}
	return protocol.Error(domain.ErrInvalidCommand)
}

// checkChannels rejects the monitor channel; it is only reachable through
// the monitor command.
func checkChannels(req *protocol.Request) error {
	channels := req.Args
	if req.Verb == "publish" {
		channels = req.Args[:1]
	}
	for _, ch := range channels {
		if ch == pubsub.MonitorChannel {
			return domain.ErrReservedChannel.WithDetails(ch)
		}
	}
	return nil
}

func (c *conn) joinedChannels() []string {
	out := make([]string, 0, len(c.joined))
	for ch := range c.joined {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// ============================================================================
// Response helpers
// ============================================================================

func parseInt(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, domain.ErrNotInteger
	}
	return n, nil
}

func valueOrError(v string, err error) protocol.Response {
	if err != nil {
		return protocol.Error(err)
	}
	return protocol.Value(v)
}

func intOrError(n int, err error) protocol.Response {
	if err != nil {
		return protocol.Error(err)
	}
	return protocol.Integer(int64(n))
}

func int64OrError(n int64, err error) protocol.Response {
	if err != nil {
		return protocol.Error(err)
	}
	return protocol.Integer(n)
}

func okOrError(err error) protocol.Response {
	if err != nil {
		return protocol.Error(err)
	}
	return protocol.OK()
}

func listOrError(items []string, err error) protocol.Response {
	if err != nil {
		return protocol.Error(err)
	}
	return protocol.List(items)
}
