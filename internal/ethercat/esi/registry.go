// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package esi parses the EtherCAT ESI/PDO registry blob: a bit-exact,
// little-endian binary generated offline (vendor ESI files compiled down
// to vendor/device/PDO tables plus a string pool) that the EtherCAT read
// and write tasks consult to map a device's (vendor, product, revision)
// to its PDO layout. The binary layout mirrors the C++ driver's
// known_devices blob format so the same generated registry_blob can be
// consumed by either implementation.
package esi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

// RegistryMagic identifies a valid registry blob.
const RegistryMagic uint32 = 0x31495345 // "ESI1" as seen little-endian

const (
	headerSize      = 32
	vendorSize      = 8
	deviceIndexSize = 16
	deviceSize      = 16
	pdoSize         = 12
)

// DataType IDs as encoded in a BlobPDO's data_type byte.
const (
	DataTypeUint8 uint8 = iota + 1
	DataTypeInt8
	DataTypeInt16
	DataTypeUint16
	DataTypeInt32
	DataTypeUint32
	DataTypeInt64
	DataTypeUint64
	DataTypeFloat32
	DataTypeFloat64
)

// PDOEntry is one process-data-object definition within a device: its
// CoE address, bit width, direction, and declared type.
type PDOEntry struct {
	PDOIndex  uint16
	Index     uint16
	SubIndex  uint8
	BitLength uint8
	DataType  uint8
	IsInput   bool
	Name      string
}

// Device is one (vendor, product, revision) entry's full PDO layout.
type Device struct {
	VendorID    uint32
	ProductCode uint32
	Revision    uint32
	Name        string
	InputPDOs   []PDOEntry
	OutputPDOs  []PDOEntry
}

type deviceIndexEntry struct {
	vendorID     uint32
	productCode  uint32
	firstDevice  uint32
	deviceCount  uint32
}

// Registry is a parsed ESI/PDO blob, ready for (vendor, product, revision)
// lookups.
type Registry struct {
	vendorNames map[uint32]string
	index       []deviceIndexEntry
	devices     []Device
}

// Parse decodes a registry blob per the header/vendor/device-index/device/
// PDO/string-table layout described in the driver's external interfaces.
func Parse(data []byte) (*Registry, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("esi: blob too small for header")
	}
	magic := binary.LittleEndian.Uint32(data[0:4])
	if magic != RegistryMagic {
		return nil, fmt.Errorf("esi: bad magic %#x", magic)
	}
	vendorCount := binary.LittleEndian.Uint32(data[8:12])
	deviceIndexCount := binary.LittleEndian.Uint32(data[12:16])
	deviceCount := binary.LittleEndian.Uint32(data[16:20])
	pdoCount := binary.LittleEndian.Uint32(data[20:24])
	stringTableOffset := binary.LittleEndian.Uint32(data[24:28])
	stringTableSize := binary.LittleEndian.Uint32(data[28:32])

	if int(stringTableOffset+stringTableSize) > len(data) {
		return nil, fmt.Errorf("esi: string table out of range")
	}
	strings := data[stringTableOffset : stringTableOffset+stringTableSize]
	stringAt := func(offset uint32) (string, error) {
		if int(offset) >= len(strings) {
			return "", fmt.Errorf("esi: string offset %d out of range", offset)
		}
		end := bytes.IndexByte(strings[offset:], 0)
		if end < 0 {
			return "", fmt.Errorf("esi: unterminated string at offset %d", offset)
		}
		return string(strings[offset : offset+uint32(end)]), nil
	}

	off := headerSize

	vendorNames := make(map[uint32]string, vendorCount)
	for i := uint32(0); i < vendorCount; i++ {
		rec := data[off : off+vendorSize]
		id := binary.LittleEndian.Uint32(rec[0:4])
		nameOff := binary.LittleEndian.Uint32(rec[4:8])
		name, err := stringAt(nameOff)
		if err != nil {
			return nil, err
		}
		vendorNames[id] = name
		off += vendorSize
	}

	index := make([]deviceIndexEntry, deviceIndexCount)
	for i := uint32(0); i < deviceIndexCount; i++ {
		rec := data[off : off+deviceIndexSize]
		index[i] = deviceIndexEntry{
			vendorID:    binary.LittleEndian.Uint32(rec[0:4]),
			productCode: binary.LittleEndian.Uint32(rec[4:8]),
			firstDevice: binary.LittleEndian.Uint32(rec[8:12]),
			deviceCount: binary.LittleEndian.Uint32(rec[12:16]),
		}
		off += deviceIndexSize
	}
	sort.Slice(index, func(i, j int) bool {
		if index[i].vendorID != index[j].vendorID {
			return index[i].vendorID < index[j].vendorID
		}
		return index[i].productCode < index[j].productCode
	})

	type rawDevice struct {
		revision                 uint32
		nameOffset               uint32
		pdoOffset                uint32
		inputCount, outputCount  uint16
	}
	rawDevices := make([]rawDevice, deviceCount)
	for i := uint32(0); i < deviceCount; i++ {
		rec := data[off : off+deviceSize]
		rawDevices[i] = rawDevice{
			revision:    binary.LittleEndian.Uint32(rec[0:4]),
			nameOffset:  binary.LittleEndian.Uint32(rec[4:8]),
			pdoOffset:   binary.LittleEndian.Uint32(rec[8:12]),
			inputCount:  binary.LittleEndian.Uint16(rec[12:14]),
			outputCount: binary.LittleEndian.Uint16(rec[14:16]),
		}
		off += deviceSize
	}

	pdos := make([]PDOEntry, pdoCount)
	for i := uint32(0); i < pdoCount; i++ {
		rec := data[off : off+pdoSize]
		nameOff := binary.LittleEndian.Uint32(rec[8:12])
		name, err := stringAt(nameOff)
		if err != nil {
			return nil, err
		}
		pdos[i] = PDOEntry{
			PDOIndex:  binary.LittleEndian.Uint16(rec[0:2]),
			Index:     binary.LittleEndian.Uint16(rec[2:4]),
			SubIndex:  rec[4],
			BitLength: rec[5],
			DataType:  rec[6],
			Name:      name,
		}
		off += pdoSize
	}

	devices := make([]Device, 0, deviceCount)
	for i := range index {
		idx := &index[i]
		rawFirst := idx.firstDevice
		idx.firstDevice = uint32(len(devices))
		for j := uint32(0); j < idx.deviceCount; j++ {
			rd := rawDevices[rawFirst+j]
			name, err := stringAt(rd.nameOffset)
			if err != nil {
				return nil, err
			}
			dev := Device{
				VendorID:    idx.vendorID,
				ProductCode: idx.productCode,
				Revision:    rd.revision,
				Name:        name,
			}
			for j := uint16(0); j < rd.inputCount; j++ {
				p := pdos[rd.pdoOffset+uint32(j)]
				p.IsInput = true
				dev.InputPDOs = append(dev.InputPDOs, p)
			}
			for j := uint16(0); j < rd.outputCount; j++ {
				p := pdos[rd.pdoOffset+uint32(rd.inputCount)+uint32(j)]
				p.IsInput = false
				dev.OutputPDOs = append(dev.OutputPDOs, p)
			}
			devices = append(devices, dev)
		}
	}

	return &Registry{vendorNames: vendorNames, index: index, devices: devices}, nil
}

// VendorName returns the human-readable name for vendorID, if known.
func (r *Registry) VendorName(vendorID uint32) (string, bool) {
	name, ok := r.vendorNames[vendorID]
	return name, ok
}

// IsDeviceKnown reports whether the registry has any revision of
// (vendorID, productCode).
func (r *Registry) IsDeviceKnown(vendorID, productCode uint32) bool {
	_, ok := r.findIndex(vendorID, productCode)
	return ok
}

// Lookup resolves (vendorID, productCode, revision) to its PDO layout: an
// exact revision match wins, otherwise the first registered revision for
// that (vendor, product) is returned.
func (r *Registry) Lookup(vendorID, productCode, revision uint32) (Device, error) {
	entry, ok := r.findIndex(vendorID, productCode)
	if !ok {
		return Device{}, fmt.Errorf("esi: device %#x:%#x is not in the registry", vendorID, productCode)
	}
	var fallback *Device
	for i := uint32(0); i < entry.deviceCount; i++ {
		dev := &r.devices[int(entry.firstDevice)+int(i)]
		if dev.Revision == revision {
			return *dev, nil
		}
		if fallback == nil {
			fallback = dev
		}
	}
	if fallback == nil {
		return Device{}, fmt.Errorf("esi: device %#x:%#x has no registered revisions", vendorID, productCode)
	}
	return *fallback, nil
}

func (r *Registry) findIndex(vendorID, productCode uint32) (deviceIndexEntry, bool) {
	i := sort.Search(len(r.index), func(i int) bool {
		e := r.index[i]
		if e.vendorID != vendorID {
			return e.vendorID >= vendorID
		}
		return e.productCode >= productCode
	})
	if i >= len(r.index) || r.index[i].vendorID != vendorID || r.index[i].productCode != productCode {
		return deviceIndexEntry{}, false
	}
	return r.index[i], true
}
