package music

const (
	msgNotInVoice     = "You need to be in a voice channel first."
	msgConnectFailed  = "I couldn't connect to your voice channel."
	msgJoined         = "Joined **%s**."
	msgMoved          = "Moved to **%s**."
	msgNotConnected   = "I'm not in any voice channel."
	msgLeft           = "Left the voice channel and cleared the queue."
	msgNotFound       = "Couldn't find or play that track. Try another link or name."
	msgNoStream       = "Couldn't get the audio stream for this track."
	msgNowPlaying     = "Now playing: **%s**"
	msgQueued         = "Added to queue: **%s**"
	msgNothingPlaying = "Nothing is playing right now."
	msgSkipped        = "Skipped the current track."
	msgNothingToPause = "Nothing is playing to pause."
	msgPaused         = "Paused."
	msgNotPaused      = "The track isn't paused."
	msgResumed        = "Resumed."
	msgStopped        = "Stopped playback and cleared the queue."
	msgNoCurrent      = "Nothing is playing at the moment."
	msgQueueEmpty     = "The queue is empty."
	msgQueueHeader    = "Up next:"
	msgHistoryOff     = "Play history is disabled."
	msgHistoryEmpty   = "Nothing has been played here yet."
	msgHistoryHeader  = "Recently played:"
	msgHistoryFailed  = "Couldn't read the play history."

	unknownDuration = "unknown"
	unknownClock    = "??:??"
)

// Reply is the text sent back to the user who ran a command.
type Reply struct {
	Content   string
	Ephemeral bool
}

func private(s string) Reply { return Reply{Content: s, Ephemeral: true} }

func public(s string) Reply { return Reply{Content: s} }
