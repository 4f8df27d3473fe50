package mqtt5

import "github.com/nimbusmq/mqtt5/internal/wire"

// ReasonCode is an MQTT v5.0 reason code, carried in CONNACK, PUBACK,
// PUBREC, PUBREL, PUBCOMP, SUBACK, UNSUBACK, DISCONNECT and AUTH packets.
// Values 0x00-0x7F indicate success or a non-error condition; 0x80-0xFF
// indicate failure.
type ReasonCode uint8

func (r ReasonCode) String() string {
	if name, ok := reasonCodeNames[r]; ok {
		return name
	}
	return "unknown reason code"
}

// Failed reports whether the reason code indicates failure (per the MQTT 5
// convention: the top bit is set).
func (r ReasonCode) Failed() bool {
	return r >= 0x80
}

// Error implements the error interface so a bare ReasonCode can be returned
// or compared directly with errors.Is.
func (r ReasonCode) Error() string {
	return r.String()
}

const (
	ReasonSuccess                             ReasonCode = ReasonCode(wire.ReasonSuccess)
	ReasonNormalDisconnection                  ReasonCode = ReasonCode(wire.ReasonNormalDisconnection)
	ReasonGrantedQoS0                          ReasonCode = ReasonCode(wire.ReasonGrantedQoS0)
	ReasonGrantedQoS1                          ReasonCode = ReasonCode(wire.ReasonGrantedQoS1)
	ReasonGrantedQoS2                          ReasonCode = ReasonCode(wire.ReasonGrantedQoS2)
	ReasonDisconnectWithWillMessage            ReasonCode = ReasonCode(wire.ReasonDisconnectWithWillMessage)
	ReasonNoMatchingSubscribers                ReasonCode = ReasonCode(wire.ReasonNoMatchingSubscribers)
	ReasonNoSubscriptionExisted                ReasonCode = ReasonCode(wire.ReasonNoSubscriptionExisted)
	ReasonContinueAuthentication               ReasonCode = ReasonCode(wire.ReasonContinueAuthentication)
	ReasonReAuthenticate                       ReasonCode = ReasonCode(wire.ReasonReAuthenticate)
	ReasonUnspecifiedError                     ReasonCode = ReasonCode(wire.ReasonUnspecifiedError)
	ReasonMalformedPacket                      ReasonCode = ReasonCode(wire.ReasonMalformedPacket)
	ReasonProtocolError                        ReasonCode = ReasonCode(wire.ReasonProtocolError)
	ReasonImplementationSpecificError          ReasonCode = ReasonCode(wire.ReasonImplementationSpecificError)
	ReasonUnsupportedProtocolVersion           ReasonCode = ReasonCode(wire.ReasonUnsupportedProtocolVersion)
	ReasonClientIdentifierNotValid             ReasonCode = ReasonCode(wire.ReasonClientIdentifierNotValid)
	ReasonBadUserNameOrPassword                ReasonCode = ReasonCode(wire.ReasonBadUserNameOrPassword)
	ReasonNotAuthorized                        ReasonCode = ReasonCode(wire.ReasonNotAuthorized)
	ReasonServerUnavailable                    ReasonCode = ReasonCode(wire.ReasonServerUnavailable)
	ReasonServerBusy                           ReasonCode = ReasonCode(wire.ReasonServerBusy)
	ReasonBanned                               ReasonCode = ReasonCode(wire.ReasonBanned)
	ReasonServerShuttingDown                   ReasonCode = ReasonCode(wire.ReasonServerShuttingDown)
	ReasonBadAuthenticationMethod              ReasonCode = ReasonCode(wire.ReasonBadAuthenticationMethod)
	ReasonKeepAliveTimeout                     ReasonCode = ReasonCode(wire.ReasonKeepAliveTimeout)
	ReasonSessionTakenOver                     ReasonCode = ReasonCode(wire.ReasonSessionTakenOver)
	ReasonTopicFilterInvalid                   ReasonCode = ReasonCode(wire.ReasonTopicFilterInvalid)
	ReasonTopicNameInvalid                     ReasonCode = ReasonCode(wire.ReasonTopicNameInvalid)
	ReasonPacketIdentifierInUse                ReasonCode = ReasonCode(wire.ReasonPacketIdentifierInUse)
	ReasonPacketIdentifierNotFound              ReasonCode = ReasonCode(wire.ReasonPacketIdentifierNotFound)
	ReasonReceiveMaximumExceeded                ReasonCode = ReasonCode(wire.ReasonReceiveMaximumExceeded)
	ReasonTopicAliasInvalid                     ReasonCode = ReasonCode(wire.ReasonTopicAliasInvalid)
	ReasonPacketTooLarge                        ReasonCode = ReasonCode(wire.ReasonPacketTooLarge)
	ReasonMessageRateTooHigh                    ReasonCode = ReasonCode(wire.ReasonMessageRateTooHigh)
	ReasonQuotaExceeded                         ReasonCode = ReasonCode(wire.ReasonQuotaExceeded)
	ReasonAdministrativeAction                  ReasonCode = ReasonCode(wire.ReasonAdministrativeAction)
	ReasonPayloadFormatInvalid                  ReasonCode = ReasonCode(wire.ReasonPayloadFormatInvalid)
	ReasonRetainNotSupported                    ReasonCode = ReasonCode(wire.ReasonRetainNotSupported)
	ReasonQoSNotSupported                       ReasonCode = ReasonCode(wire.ReasonQoSNotSupported)
	ReasonUseAnotherServer                      ReasonCode = ReasonCode(wire.ReasonUseAnotherServer)
	ReasonServerMoved                           ReasonCode = ReasonCode(wire.ReasonServerMoved)
	ReasonSharedSubscriptionsNotSupported       ReasonCode = ReasonCode(wire.ReasonSharedSubscriptionsNotSupported)
	ReasonConnectionRateExceeded                ReasonCode = ReasonCode(wire.ReasonConnectionRateExceeded)
	ReasonMaximumConnectTime                    ReasonCode = ReasonCode(wire.ReasonMaximumConnectTime)
	ReasonSubscriptionIdentifiersNotSupported   ReasonCode = ReasonCode(wire.ReasonSubscriptionIdentifiersNotSupported)
	ReasonWildcardSubscriptionsNotSupported     ReasonCode = ReasonCode(wire.ReasonWildcardSubscriptionsNotSupported)
)

var reasonCodeNames = map[ReasonCode]string{
	ReasonSuccess:                              "success",
	ReasonGrantedQoS1:                          "granted QoS 1",
	ReasonGrantedQoS2:                          "granted QoS 2",
	ReasonDisconnectWithWillMessage:            "disconnect with will message",
	ReasonNoMatchingSubscribers:                "no matching subscribers",
	ReasonNoSubscriptionExisted:                "no subscription existed",
	ReasonContinueAuthentication:               "continue authentication",
	ReasonReAuthenticate:                       "re-authenticate",
	ReasonUnspecifiedError:                     "unspecified error",
	ReasonMalformedPacket:                      "malformed packet",
	ReasonProtocolError:                        "protocol error",
	ReasonImplementationSpecificError:          "implementation specific error",
	ReasonUnsupportedProtocolVersion:           "unsupported protocol version",
	ReasonClientIdentifierNotValid:             "client identifier not valid",
	ReasonBadUserNameOrPassword:                "bad user name or password",
	ReasonNotAuthorized:                        "not authorized",
	ReasonServerUnavailable:                    "server unavailable",
	ReasonServerBusy:                           "server busy",
	ReasonBanned:                               "banned",
	ReasonServerShuttingDown:                   "server shutting down",
	ReasonBadAuthenticationMethod:              "bad authentication method",
	ReasonKeepAliveTimeout:                     "keep alive timeout",
	ReasonSessionTakenOver:                     "session taken over",
	ReasonTopicFilterInvalid:                   "topic filter invalid",
	ReasonTopicNameInvalid:                     "topic name invalid",
	ReasonPacketIdentifierInUse:                "packet identifier in use",
	ReasonPacketIdentifierNotFound:             "packet identifier not found",
	ReasonReceiveMaximumExceeded:               "receive maximum exceeded",
	ReasonTopicAliasInvalid:                    "topic alias invalid",
	ReasonPacketTooLarge:                       "packet too large",
	ReasonMessageRateTooHigh:                   "message rate too high",
	ReasonQuotaExceeded:                        "quota exceeded",
	ReasonAdministrativeAction:                 "administrative action",
	ReasonPayloadFormatInvalid:                 "payload format invalid",
	ReasonRetainNotSupported:                   "retain not supported",
	ReasonQoSNotSupported:                      "QoS not supported",
	ReasonUseAnotherServer:                     "use another server",
	ReasonServerMoved:                          "server moved",
	ReasonSharedSubscriptionsNotSupported:      "shared subscriptions not supported",
	ReasonConnectionRateExceeded:               "connection rate exceeded",
	ReasonMaximumConnectTime:                   "maximum connect time",
	ReasonSubscriptionIdentifiersNotSupported:  "subscription identifiers not supported",
	ReasonWildcardSubscriptionsNotSupported:    "wildcard subscriptions not supported",
}
