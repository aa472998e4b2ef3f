package model

// Channel identifies a delivery channel for one dispatch batch.
type Channel string

const (
	ChannelSMS        Channel = "sms" // covers SMS/LMS/MMS, the exact type is decided per message
	ChannelAlimtalk   Channel = "alimtalk"
	ChannelFriendtalk Channel = "friendtalk"
	ChannelBrand      Channel = "brand"
	ChannelNaver      Channel = "naver"
	ChannelRCS        Channel = "rcs"
)

// Channels lists every supported channel.
var Channels = []Channel{
	ChannelSMS,
	ChannelAlimtalk,
	ChannelFriendtalk,
	ChannelBrand,
	ChannelNaver,
	ChannelRCS,
}

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	for _, ch := range Channels {
		if c == ch {
			return true
		}
	}

	return false
}

// RequiresInspection reports whether templates on this channel go through
// the provider's approval review before they may be used to send.
func (c Channel) RequiresInspection() bool {
	return c == ChannelAlimtalk || c == ChannelBrand || c == ChannelNaver
}

// RequiresCommonValues reports whether a missing common variable value blocks
// sending on this channel. SMS, Friendtalk and RCS substitute empty strings
// instead, matching the source system's per-channel behavior.
func (c Channel) RequiresCommonValues() bool {
	return c == ChannelAlimtalk || c == ChannelBrand || c == ChannelNaver
}

// BatchesRecipients reports whether the provider accepts all recipients in a
// single request (Kakao channels fan out server-side). The other channels
// take one request per recipient.
func (c Channel) BatchesRecipients() bool {
	return c == ChannelAlimtalk || c == ChannelFriendtalk || c == ChannelBrand
}
