// Package audio handles the PCM side of offline synthesis: parsing the WAV
// output of engines, appending rendered chunks into a single WAV file,
// applying volume gain and playing previews through oto/v3.
package audio
