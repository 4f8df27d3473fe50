package mqtt5

// serverLimits holds the capabilities and limits captured from the most
// recent CONNACK. A fresh serverLimits with the MQTT 5 defaults is in
// effect until the first CONNACK is processed.
type serverLimits struct {
	MaximumPacketSize       uint32 // 0 = no limit advertised
	ReceiveMaximum          uint16 // default 65535
	TopicAliasMaximum       uint16 // default 0 (disabled)
	MaximumQoS              uint8  // default 2
	RetainAvailable         bool
	WildcardAvailable       bool
	SubscriptionIDAvailable bool
	SharedSubAvailable      bool
	ServerKeepAlive         uint16 // 0 = not overridden
	AssignedClientID        string
	ResponseInformation     string
	ServerReference         string
	SessionExpiryInterval   uint32
}

func defaultServerLimits() serverLimits {
	return serverLimits{
		ReceiveMaximum:          65535,
		MaximumQoS:              2,
		RetainAvailable:         true,
		WildcardAvailable:       true,
		SubscriptionIDAvailable: true,
		SharedSubAvailable:      true,
	}
}
