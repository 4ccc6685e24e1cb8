// Package placeholder substitutes named tokens in author supplied card
// templates with field values. Tokens take the form <name> or <format:name>
// and may appear HTML escaped (&lt;name&gt;) when the template was captured
// from rendered markup.
//
// String values are HTML escaped before insertion. Trusted markup must be
// wrapped in Markup, referenced through Reference, or requested explicitly
// with the raw: format, which passes the value through a sanitising policy.
package placeholder
