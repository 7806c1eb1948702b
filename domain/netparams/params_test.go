package netparams

import "testing"

func TestParamsForNetwork(t *testing.T) {
	tests := []struct {
		network      string
		expectedName string
		expectedURL  string
		expectError  bool
	}{
		{network: "mainnet", expectedName: "mainnet", expectedURL: "https://mainnet.ckb.dev"},
		{network: "testnet", expectedName: "testnet", expectedURL: "https://testnet.ckb.dev"},
		{network: "http://localhost:8114", expectedName: CustomNetworkName, expectedURL: "http://localhost:8114"},
		{network: "devnet", expectError: true},
		{network: "ftp://localhost", expectError: true},
	}

	for _, test := range tests {
		params, err := ParamsForNetwork(test.network)
		if test.expectError {
			if err == nil {
				t.Fatalf("%s: expected an error", test.network)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: ParamsForNetwork: %+v", test.network, err)
		}
		if params.Name != test.expectedName || params.RPCURL != test.expectedURL {
			t.Fatalf("%s: unexpected params %s %s", test.network, params.Name, params.RPCURL)
		}
	}
}

func TestParamsForNetworkReturnsCopy(t *testing.T) {
	params, err := ParamsForNetwork("testnet")
	if err != nil {
		t.Fatalf("ParamsForNetwork: %+v", err)
	}
	params.RPCURL = "http://changed"
	if TestnetParams.RPCURL != "https://testnet.ckb.dev" {
		t.Fatalf("ParamsForNetwork must not hand out the shared params")
	}
}
