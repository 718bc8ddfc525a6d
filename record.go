package spf

import "strings"

// spfVersionTag is the case-insensitive prefix a character-string sequence
// must carry, followed by end-of-string or a space, to qualify as a
// policy record (§4.5 rule 2).
const spfVersionTag = "v=spf1"

// startRecordFetch fires the TXT query and, unless the tree opted out,
// the type-99 SPF query, per §4.5: "fires both a TXT query and (unless
// the caller opted out) a type-99 SPF query at context start."
func startRecordFetch(ctx *evalContext) {
	fqdn := normalizeFQDN(ctx.domain)

	issueQuery(ctx, fqdn, TypeTXT, func(ans *Answer, err error) {
		ctx.txtRecv = true
		if err != nil {
			ctx.txtErr = true
		} else {
			ctx.txtRecords = selectCandidates(ans)
		}
		tryFinalizeRecord(ctx)
	})

	if ctx.tree.skipSPFType {
		ctx.spfRecv = true
		finalizeIfReady(ctx)
		return
	}

	issueQuery(ctx, fqdn, TypeSPF, func(ans *Answer, err error) {
		ctx.spfRecv = true
		if err != nil {
			ctx.spfErr = true
		} else {
			ctx.spfRecords = selectCandidates(ans)
		}
		tryFinalizeRecord(ctx)
	})
}

// selectCandidates concatenates each RR's already RFC-1035-joined
// character-strings and keeps only those that carry the v=spf1 tag
// (§4.5 rules 1-2).
func selectCandidates(ans *Answer) []string {
	if ans == nil {
		return nil
	}
	var out []string
	for _, s := range ans.Strings {
		if isSPFCandidate(s) {
			out = append(out, s)
		}
	}
	return out
}

func isSPFCandidate(s string) bool {
	if len(s) < len(spfVersionTag) {
		return false
	}
	if !strings.EqualFold(s[:len(spfVersionTag)], spfVersionTag) {
		return false
	}
	return len(s) == len(spfVersionTag) || s[len(spfVersionTag)] == ' '
}

func finalizeIfReady(ctx *evalContext) {
	tryFinalizeRecord(ctx)
}

// tryFinalizeRecord applies §4.5 rule 3's precedence and §9's "hold the
// too-many verdict tentatively until both replies are in" once both the
// TXT and (if requested) SPF queries have answered.
func tryFinalizeRecord(ctx *evalContext) {
	if !ctx.txtRecv {
		return
	}
	if !ctx.tree.skipSPFType && !ctx.spfRecv {
		return
	}
	if ctx.recordReady {
		return
	}
	ctx.recordReady = true

	bothErrored := ctx.txtErr && (ctx.tree.skipSPFType || ctx.spfErr)
	if bothErrored {
		finishContext(ctx, Temperror, ErrDNSTemperror)
		return
	}

	var chosen []string
	if !ctx.tree.skipSPFType && len(ctx.spfRecords) > 0 {
		chosen = ctx.spfRecords // SPF wins over TXT once both have replied
	} else {
		chosen = ctx.txtRecords
	}

	if len(chosen) == 0 {
		// bothErrored (checked above) is the only case that temperrors;
		// a single query erroring alongside the other's legitimately
		// empty/NXDOMAIN answer still falls through to "no record found".
		finishContext(ctx, None, ErrSPFNotFound)
		return
	}
	if len(chosen) > 1 {
		finishContext(ctx, Permerror, ErrTooManyRecords)
		return
	}

	ctx.policy = chosen[0]
	pol, err := parseRecord(ctx.policy)
	if err != nil {
		finishContext(ctx, Permerror, err)
		return
	}
	ctx.pol = pol
	startDriver(ctx)
}
