package spf

import "strings"

// resolvePTR implements §4.6's PTR resolution, shared by the ptr
// mechanism and the %p macro: construct the reverse-DNS name, issue a
// PTR query, and forward-resolve each returned name (capped at
// maxPTRAnswers) to find one whose forward answer contains ctx.ip. done
// is invoked with the first (in PTR-answer order) validated name, or ""
// if none validate — always on the tree's loop goroutine.
func resolvePTR(ctx *evalContext, done func(validated string)) {
	name := reverseDNSName(ctx.ip)

	issueQuery(ctx, name, TypePTR, func(ans *Answer, err error) {
		if err != nil || ans == nil || len(ans.Hosts) == 0 {
			done("")
			return
		}
		hosts := ans.Hosts
		if len(hosts) > maxPTRAnswers {
			hosts = hosts[:maxPTRAnswers]
		}

		validated := make([]string, len(hosts))
		remaining := len(hosts)
		fwdType := TypeA
		if ctx.ip.isV6 {
			fwdType = TypeAAAA
		}

		for idx, h := range hosts {
			i := idx
			host := h.Host
			issueQuery(ctx, host, fwdType, func(fans *Answer, ferr error) {
				remaining--
				if ferr == nil && fans != nil && containsClientIP(fans.IPs, ctx.ip) {
					validated[i] = host
				}
				if remaining == 0 {
					for _, v := range validated {
						if v != "" {
							done(v)
							return
						}
					}
					done("")
				}
			})
		}
	})
}

func containsClientIP(ips []clientIPAddr, ip clientIP) bool {
	for _, a := range ips {
		if a.IsV6 != ip.isV6 {
			continue
		}
		if ip.isV6 {
			if a.V6 == ip.v6 {
				return true
			}
		} else if a.V4 == ip.v4 {
			return true
		}
	}
	return false
}

// reverseDNSName builds the in-addr.arpa / ip6.arpa query name per §4.6.
func reverseDNSName(ip clientIP) string {
	if !ip.isV6 {
		b := ip.v4
		return itoaSmall(int(b[3])) + "." + itoaSmall(int(b[2])) + "." +
			itoaSmall(int(b[1])) + "." + itoaSmall(int(b[0])) + ".in-addr.arpa."
	}
	var sb strings.Builder
	for i := len(ip.v6) - 1; i >= 0; i-- {
		byt := ip.v6[i]
		sb.WriteByte(hexNibble(byt & 0xF))
		sb.WriteByte('.')
		sb.WriteByte(hexNibble(byt >> 4))
		sb.WriteByte('.')
	}
	sb.WriteString("ip6.arpa.")
	return sb.String()
}

// startPTRResolution is the %p macro's entry point (§4.3): it marks the
// context as awaiting PTR validation and resumes the suspended rule on
// completion. matchDomain is unused here (nil) — it exists so the ptr
// mechanism dispatch in engine.go can share this function's signature
// conceptually, though it calls resolvePTR directly since it needs the
// validated name for a domain comparison rather than macro substitution.
func startPTRResolution(ctx *evalContext, matchDomain *string) {
	ctx.ptrPending = true
	resolvePTR(ctx, func(validated string) {
		ctx.ptrPending = false
		if validated == "" {
			ctx.validated = "unknown"
		} else {
			ctx.validated = validated
		}
		ctx.inMacro = false
		if ctx.resumeMacro != nil {
			r := ctx.resumeMacro
			ctx.resumeMacro = nil
			r()
		}
	})
}
