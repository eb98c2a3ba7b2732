/*
Package profile learns the shape of a corpus of short text lines, such as
password or key lists, and synthesizes new lines that follow the same shape.

Analysis builds two independent distributions: how long lines are, and which
characters appear at each position. Generation draws a length, then draws one
character per position. Characters are drawn independently of their
neighbours, so correlations between positions in the corpus are not learned.

Trained profiles can be persisted in a SQLite database through Store, and
moved between databases with ExportProfile and ImportProfile.

Nothing in this package is suitable for producing secrets. The random
sources are seeded pseudo-random generators.
*/
package profile
