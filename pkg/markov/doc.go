/*
Package markov provides a character-level, k-th order Markov text model.

A Model learns, from a corpus, how often each character follows every window of
the k preceding characters. Training freezes those counts into an immutable
Table of cumulative probabilities, which the generator then walks with a
model-owned random source to synthesize new text.

Generation treats the requested length as a soft minimum: text keeps growing
until it is long enough and ends in a space, or until the current window was
never seen during training. WithMaxSteps bounds the otherwise open-ended loop.

A Model is not safe for concurrent use. Use one Model per goroutine, or
serialize access to a shared one.
*/
package markov
