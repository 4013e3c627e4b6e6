/* Package main: tinyboot -- a two-pass bootstrap interpreter

Tinyboot is an extremely minimal Forth-like language, small enough to
hand-assemble, whose only job is to be the first link in a bootstrap chain: it
can define named data, define named routines, and shuffle bytes between memory
and the outside world, which is just enough to write the next, more capable
stage in.

A tinyboot program is a flat byte sequence processed twice over.

The first pass "compiles" the program: a single left-to-right scan that never
executes any program semantics.  It builds two things as side effects.  One is
the dataspace, a growable byte buffer populated by the literal constructs b
(one byte, from a decimal literal) and # (four bytes, a little-endian 32-bit
word).  The other is the run-time dispatch table, extended by v (bind a
one-byte name to the current dataspace address) and : (bind a one-byte name to
the program text offset just past the definition, making the text that follows
a callable routine).  The ^ marker records where execution will later begin.
Parenthesized comments and whitespace are skipped, and any byte already known
to the run-time table is ignored outright, which is what lets routine bodies
full of run-time operators sit harmlessly in the middle of the scan.

The second pass "runs" the same text, starting from the ^ mark: each byte is
looked up in the now-complete dispatch table and performed.  The built-in
operators are deliberately few: decimal literals push their value, + adds,
~ complements the low 32 bits, @ and ! fetch and store little-endian words in
dataspace, G reads one input byte, W writes a dataspace range to output,
; returns from a routine, and Q quits.  A name bound by v pushes its recorded
address; a name bound by : pushes the return offset on the call stack and
jumps.  That is the entire language.

There is no error recovery anywhere.  An unknown byte, a missing entry mark,
a stack underflow, an out-of-range dataspace access, or exhausted input all
abort the run; the only clean exit is an explicit Q.

One deliberate oddity worth knowing about: because b and # are compile-pass
constructs, writing them inside a : routine body does not compile "code" --
the scan has already consumed them (argument and all) into dataspace by the
time the routine runs, and the leftover b or # byte is not a run-time
operator, so actually calling such a routine aborts.  The compile pass is a
plain linear scan and has no idea it is inside a definition.  Programs that
matter keep their data definitions outside routine bodies.

A small worked example:

	( greet: two data bytes, then code to write them )
	v m b 72 b 105
	^ m 2 W Q

The compile pass binds m to address 0, appends 72 and 105 ('H', 'i') to
dataspace, and records the entry mark.  The run pass pushes 0 (via m) and 2,
writes two bytes to output, and quits.  Output: "Hi".

The interpreter reads a program file named on the command line, runs it with
standard input and output as the byte source and sink, and dumps the compiled
dataspace to standard error between the two passes (a diagnostic only; it is
not part of the program's output contract).
*/
package main
