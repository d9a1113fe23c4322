// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package checkpoint

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/misterr-labs/Equilibria/background"
	"github.com/misterr-labs/Equilibria/crypto"
	"github.com/misterr-labs/Equilibria/fault"
)

// checkpoints are published as DNS TXT records, one per record:
// txt-record=checkpoints.domain.tld,"181056:180d0ac84048d1dd57126c38b53c353df90fa73aeb60def9359e21e55b4b2946"

const (
	refreshInterval = 1 * time.Hour // re-fetch period for the domain list
	configFile      = "/etc/resolv.conf"

	queryRate  = rate.Limit(1.0) // resolver queries per second
	queryBurst = 4
)

// TxtLookup - fetch the TXT records of a domain
//
// LookupTXT satisfies this; tests inject a canned function
type TxtLookup func(domain string) ([]string, error)

// dnsLoader - periodically merge TXT record checkpoints
type dnsLoader struct {
	log     *logger.L
	store   *Store
	domains []string
	lookup  TxtLookup
	limiter *rate.Limiter
}

// NewDNS - fetch checkpoints from a domain list, then return a
// background process that re-fetches every hour
//
// a conflicting record during the initial fetch is an error; later
// conflicts are logged and the refresh continues
func (store *Store) NewDNS(domains []string, lookup TxtLookup, log *logger.L) (background.Process, error) {
	log.Info("initialising…")

	d := &dnsLoader{
		log:     log,
		store:   store,
		domains: domains,
		lookup:  lookup,
		limiter: rate.NewLimiter(queryRate, queryBurst),
	}

	if err := d.fetch(); nil != err {
		return nil, err
	}

	return d, nil
}

// Run - background processing interface
func (d *dnsLoader) Run(_ interface{}, shutdown <-chan struct{}) {
	log := d.log
	log.Info("starting…")

	timer := time.After(refreshInterval)

loop:
	for {
		select {
		case <-timer:
			timer = time.After(refreshInterval)
			if err := d.fetch(); nil != err {
				log.Errorf("refresh error: %s", err)
			}

		case <-shutdown:
			break loop
		}
	}

	log.Info("stopped")
}

// fetch - one rate-limited sweep over the domain list
//
// lookup failures and unparseable records are skipped; a record that
// conflicts with a stored checkpoint aborts the sweep
func (d *dnsLoader) fetch() error {

	for _, domain := range d.domains {

		r := d.limiter.Reserve()
		if !r.OK() {
			d.log.Warnf("rate limit exceeded for: %q", domain)
			continue
		}
		time.Sleep(r.Delay())

		records, err := d.lookup(domain)
		if nil != err {
			d.log.Warnf("lookup: %q  error: %s", domain, err)
			continue
		}

		for i, record := range records {
			height, hash, err := parseRecord(record)
			if nil != err {
				d.log.Debugf("result[%d]: ignoring invalid record: %q", i, record)
				continue
			}
			if err := d.store.Add(height, hash); nil != err {
				return err
			}
			d.log.Infof("result[%d]: added checkpoint height: %d  hash: %s", i, height, hash)
		}
	}

	return nil
}

// LoadDNS - one-shot checkpoint fetch from a domain list
func (store *Store) LoadDNS(domains []string, lookup TxtLookup, log *logger.L) error {
	d := &dnsLoader{
		log:     log,
		store:   store,
		domains: domains,
		lookup:  lookup,
		limiter: rate.NewLimiter(queryRate, queryBurst),
	}
	return d.fetch()
}

// parseRecord - split a "height:hash" TXT record
func parseRecord(record string) (uint64, crypto.Hash, error) {
	var hash crypto.Hash

	colon := strings.IndexByte(record, ':')
	if colon <= 0 || colon+1 >= len(record) {
		return 0, hash, fault.ErrInvalidDnsTxtRecord
	}

	height, err := strconv.ParseUint(record[:colon], 10, 64)
	if nil != err {
		return 0, hash, fault.ErrInvalidDnsTxtRecord
	}

	hash, err = crypto.HashFromHexString(record[colon+1:])
	if nil != err {
		return 0, hash, fault.ErrInvalidDnsTxtRecord
	}

	return height, hash, nil
}

// LookupTXT - fetch TXT records using the system resolver
// configuration
func LookupTXT(domain string) ([]string, error) {

	conf, err := dns.ClientConfigFromFile(configFile)
	if nil != err {
		return nil, err
	}

	servers := conf.Servers
	// limit the nameservers to lookup
	// https://www.freebsd.org/cgi/man.cgi?resolv.conf
	if len(servers) > 3 {
		servers = servers[:3]
	}

	for _, server := range servers {

		s := net.JoinHostPort(server, conf.Port)
		c := dns.Client{}
		msg := dns.Msg{}
		msg.SetQuestion(dns.Fqdn(domain), dns.TypeTXT)

		r, _, err := c.Exchange(&msg, s)
		if nil != err {
			continue
		}
		if dns.RcodeSuccess != r.Rcode {
			continue
		}

		texts := make([]string, 0, len(r.Answer))
		for _, answer := range r.Answer {
			if txt, ok := answer.(*dns.TXT); ok {
				texts = append(texts, strings.Join(txt.Txt, ""))
			}
		}
		return texts, nil
	}

	return nil, fault.ErrDnsLookupFailed
}
