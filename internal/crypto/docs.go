// crypto package provides the cryptographic primitives for the walletpass service.
//
// these are low level functions - for standard usage (issuing passes, signing bundles)
// you will not need to call these functions directly.
// See the issuer package for the high level pipeline.
package crypto
