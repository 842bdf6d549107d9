// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the persisted storage slots of the native modules.
// It follows the flow as bellow:
//
//	          o
//	          |
//	 [ revertable state ]
//	          |
//	   [ stacked map ] -> [ journal ] -> [ playback(staging) ] -> [ kv bulk ]
//	          |
//	    [ lru cache ]
//	          |
//	    [ kv store ]
//
// Every slot is addressed by the owning module address and a 32 bytes key,
// and holds a rlp encoded value. Empty values are treated as absent.
package state
