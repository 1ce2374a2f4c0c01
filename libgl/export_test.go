package libgl

type BlockMember = blockMember

var WriteStd140 = writeStd140
var ClassifyVendor = classifyVendor
var GlTextureTarget = glTextureTarget
var GlInternalFormat = glInternalFormat
var WriteCacheEntry = writeCacheEntry
var ReadCacheEntry = readCacheEntry

func NewBlockMember(offset, arrayStride, matrixStride int, rowMajor bool) BlockMember {
	return blockMember{offset: offset, arrayStride: arrayStride, matrixStride: matrixStride, rowMajor: rowMajor}
}
