package metric

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/memkv-go/pkg/cmap"
)

// StoreSource is the store state read at scrape time.
type StoreSource interface {
	ShardStats() []cmap.ShardStats
	PendingExpiries() int
}

// BrokerSource is the broker state read at scrape time.
type BrokerSource interface {
	ChannelCount() int
}

// Collector exports store and broker gauges without keeping copies.
type Collector struct {
	store  StoreSource
	broker BrokerSource

	shardKeys *prometheus.Desc
	expiries  *prometheus.Desc
	channels  *prometheus.Desc
}

// NewCollector creates a collector over store and broker. Either may be
// nil.
func NewCollector(store StoreSource, broker BrokerSource) *Collector {
	return &Collector{
		store:  store,
		broker: broker,
		shardKeys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "shard_keys"),
			"Entries held by each shard, including expired entries not yet swept",
			[]string{"shard"}, nil,
		),
		expiries: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "pending_expiries"),
			"TTL markers waiting for the janitor",
			nil, nil,
		),
		channels: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pubsub", "channels"),
			"Channels with at least one subscriber",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.shardKeys
	ch <- c.expiries
	ch <- c.channels
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.store != nil {
		for _, s := range c.store.ShardStats() {
			ch <- prometheus.MustNewConstMetric(c.shardKeys, prometheus.GaugeValue,
				float64(s.Count), strconv.Itoa(s.Index))
		}
		ch <- prometheus.MustNewConstMetric(c.expiries, prometheus.GaugeValue,
			float64(c.store.PendingExpiries()))
	}
	if c.broker != nil {
		ch <- prometheus.MustNewConstMetric(c.channels, prometheus.GaugeValue,
			float64(c.broker.ChannelCount()))
	}
}
