package spf

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemResolver_TypeSPFAlwaysEmpty(t *testing.T) {
	r := NewSystemResolver(nil)
	done := make(chan struct{})
	var got *Answer
	r.Resolve("example.com", TypeSPF, func(ans *Answer, err error) {
		got, _ = ans, err
		close(done)
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
	require.NotNil(t, got)
	assert.Empty(t, got.Strings)
	assert.False(t, got.NXDomain)
}

func TestSystemResolver_UnknownRRType(t *testing.T) {
	r := NewSystemResolver(nil)
	done := make(chan struct{})
	var gotErr error
	r.Resolve("example.com", RRType(99), func(ans *Answer, err error) {
		gotErr = err
		close(done)
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
	assert.ErrorIs(t, gotErr, ErrDNSTemperror)
}

func TestAnswerFromMX(t *testing.T) {
	ans, err := answerFromMX([]*net.MX{{Host: "MAIL.Example.com.", Pref: 10}}, nil)
	require.NoError(t, err)
	require.Len(t, ans.Hosts, 1)
	assert.Equal(t, "mail.example.com.", ans.Hosts[0].Host)
	assert.Equal(t, uint16(10), ans.Hosts[0].Preference)
}

func TestAnswerFromPTR(t *testing.T) {
	ans, err := answerFromPTR([]string{"mail.example.com."}, nil)
	require.NoError(t, err)
	require.Len(t, ans.Hosts, 1)
	assert.Equal(t, "mail.example.com.", ans.Hosts[0].Host)
}

func TestAnswerFromIPAddrs_FiltersFamily(t *testing.T) {
	ips := []net.IPAddr{
		{IP: net.ParseIP("1.2.3.4")},
		{IP: net.ParseIP("2001:db8::1")},
	}
	v4, err := answerFromIPAddrs(ips, TypeA, nil)
	require.NoError(t, err)
	require.Len(t, v4.IPs, 1)
	assert.False(t, v4.IPs[0].IsV6)

	v6, err := answerFromIPAddrs(ips, TypeAAAA, nil)
	require.NoError(t, err)
	require.Len(t, v6.IPs, 1)
	assert.True(t, v6.IPs[0].IsV6)
}

func TestAnswerFromTXTErr_NXDomain(t *testing.T) {
	err := &net.DNSError{IsNotFound: true}
	ans, rerr := answerFromTXTErr(nil, err)
	require.NoError(t, rerr)
	assert.True(t, ans.NXDomain)
}

func TestAnswerFromTXTErr_OtherError(t *testing.T) {
	err := &net.DNSError{IsTemporary: true}
	_, rerr := answerFromTXTErr(nil, err)
	assert.ErrorIs(t, rerr, ErrDNSTemperror)
}

func TestIsNXDomain(t *testing.T) {
	assert.False(t, isNXDomain(nil))
	assert.False(t, isNXDomain(&net.DNSError{IsTemporary: true}))
	assert.True(t, isNXDomain(&net.DNSError{IsNotFound: true}))
}
