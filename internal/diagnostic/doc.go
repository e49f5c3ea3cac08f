// Package diagnostic records configuration decisions and problems: members
// degraded to ignore, flattening that lost to an explicit rule, unknown
// members with "did you mean" suggestions, and rule file errors.
package diagnostic
