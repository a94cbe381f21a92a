// Package engines contains the synthesis backends.
// espeak-ng and Piper are offline engines driven as subprocesses; gtts-cli
// and the built-in HTTP client are cloud clients producing MP3.
// Offline engines implement tts.Engine, cloud clients tts.CloudClient.
package engines
