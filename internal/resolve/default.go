package resolve

// ForwardChain builds the default forward resolution chain: files,
// then CIDR expansion, then forward DNS.
func ForwardChain() (*ChainResolver, error) {
	dnsResolver, err := NewDnsResolver()
	if err != nil {
		return nil, err
	}
	return NewChainResolver().
		With(NewFileResolver()).
		With(NewCidrResolver()).
		With(dnsResolver), nil
}

// ReverseChain builds the default reverse resolution chain: reverse
// DNS only.
func ReverseChain() (*ChainResolver, error) {
	dnsResolver, err := NewDnsResolver()
	if err != nil {
		return nil, err
	}
	dnsResolver.WithForward(false).WithReverse(true)
	return NewChainResolver().With(dnsResolver), nil
}
