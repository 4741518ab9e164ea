package kafka

const (
	TopicOrders      = "table.orders"
	TopicSettlements = "table.settlements"
)

type TopicSpec struct {
	Name        string
	Partitions  int
	Replication int
}

// DefaultTopics are created by table-api on start when a broker is configured.
var DefaultTopics = []TopicSpec{
	{Name: TopicOrders, Partitions: 3, Replication: 1},
	{Name: TopicSettlements, Partitions: 1, Replication: 1},
}
